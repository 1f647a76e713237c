// Package match implements transcript-to-verse matching: a spoken phrase
// (already transcribed to text) is resolved to a specific surah/ayah
// reference with a confidence score.
//
// The cascade has three stages, tried in order until one produces a result:
//
//  1. Substring containment against the phrase table. First table entry (in
//     declaration order) whose phrase appears inside the normalized
//     transcript wins. Fixed confidence 0.9.
//  2. Normalized Levenshtein similarity of the whole transcript against
//     every phrase. Only candidates strictly above the threshold count; the
//     highest similarity wins, ties broken by table order. The raw
//     similarity is the confidence.
//  3. Remote full-corpus search, when a [RemoteSearcher] is configured. The
//     first returned result is taken at a fixed confidence of 0.7. Remote
//     failures are logged and degrade to "no match" — they never reach the
//     caller.
//
// A Matcher is read-only after construction and safe for concurrent use.
package match

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IbrahimUsmani118/versenav/internal/phrase"
	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

// Type classifies how a match was found.
type Type string

const (
	// TypeExact means the phrase was found verbatim inside the transcript.
	TypeExact Type = "exact"

	// TypeFuzzy means the transcript cleared the similarity threshold
	// against a phrase-table entry.
	TypeFuzzy Type = "fuzzy"

	// TypeRemoteSearch means the verse came from the remote corpus search
	// fallback.
	TypeRemoteSearch Type = "remoteSearch"
)

const (
	// exactConfidence is deliberately below 1.0: it leaves headroom above
	// every fuzzy score while admitting the match is phrase-table driven
	// rather than a verified full-verse identification.
	exactConfidence = 0.9

	// remoteConfidence reflects "found via full corpus search, unverified
	// locally".
	remoteConfidence = 0.7

	// defaultFuzzyThreshold is the strict lower bound a similarity score
	// must exceed to produce a fuzzy match.
	defaultFuzzyThreshold = 0.6
)

// Result is the outcome of a successful match. It is constructed fresh per
// transcript and never retained by the Matcher.
type Result struct {
	Surah       int     `json:"surah"`
	Ayah        int     `json:"ayah"`
	SurahName   string  `json:"surahName"`
	MatchedText string  `json:"matchedText"`
	Confidence  float64 `json:"confidence"`
	Type        Type    `json:"matchType"`
}

// RemoteVerse is one result row from a remote corpus search endpoint.
type RemoteVerse struct {
	Surah   int    `json:"surah"`
	Ayah    int    `json:"ayah"`
	Text    string `json:"text"`
	Edition string `json:"edition"`
}

// RemoteSearcher performs a full-text search over the complete corpus.
// Implementations are expected to rank their own results; the matcher
// trusts the ordering and consumes only the first row.
type RemoteSearcher interface {
	Search(ctx context.Context, query string) ([]RemoteVerse, error)
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithFuzzyThreshold overrides the similarity threshold for stage 2.
// A candidate must score strictly above the threshold. Default: 0.6.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// WithRemoteSearcher attaches the stage-3 fallback. When nil (the default),
// the cascade ends after the fuzzy stage.
func WithRemoteSearcher(rs RemoteSearcher) Option {
	return func(m *Matcher) {
		m.remote = rs
	}
}

// WithPhoneticAssist enables a phonetic ranking pass between the substring
// and Levenshtein stages, accepting entries whose Jaro-Winkler score against
// the transcript is at least threshold and whose Double Metaphone codes
// overlap. Transliterated Arabic is spelled inconsistently but pronounced
// consistently, which is exactly the gap this stage covers. Disabled by
// default.
func WithPhoneticAssist(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// Matcher resolves transcripts to verse references. Construct with [New];
// the zero value is not usable.
type Matcher struct {
	table             *phrase.Table
	remote            RemoteSearcher
	fuzzyThreshold    float64
	phoneticThreshold float64 // 0 disables the phonetic stage
}

// New creates a Matcher over table with the supplied options.
func New(table *phrase.Table, opts ...Option) *Matcher {
	m := &Matcher{
		table:          table,
		fuzzyThreshold: defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves transcript to a verse reference, or nil when no stage
// produces a result. Match never returns an error: local stages are pure,
// and remote failures are recovered into "no match" so an opportunistic
// search can never break the caller's primary flow.
func (m *Matcher) Match(ctx context.Context, transcript string) *Result {
	normalized := Normalize(transcript)
	if normalized == "" {
		return nil
	}

	if r := m.matchSubstring(normalized); r != nil {
		slog.Debug("match: substring hit",
			"transcript", normalized,
			"surah", r.Surah, "ayah", r.Ayah,
		)
		return r
	}

	if m.phoneticThreshold > 0 {
		if r := m.matchPhonetic(normalized); r != nil {
			slog.Debug("match: phonetic hit",
				"transcript", normalized,
				"surah", r.Surah, "ayah", r.Ayah,
				"confidence", r.Confidence,
			)
			return r
		}
	}

	if r := m.matchFuzzy(normalized); r != nil {
		slog.Debug("match: fuzzy hit",
			"transcript", normalized,
			"surah", r.Surah, "ayah", r.Ayah,
			"confidence", r.Confidence,
		)
		return r
	}

	return m.matchRemote(ctx, transcript)
}

// matchSubstring implements stage 1: first table entry whose phrase is
// contained in the normalized transcript. Table order is a fixed priority
// list; this is first-match, not best-match.
func (m *Matcher) matchSubstring(normalized string) *Result {
	for _, e := range m.table.Entries() {
		if !containsPhrase(normalized, e.Phrase) {
			continue
		}
		return resultFor(e, e.Phrase, exactConfidence, TypeExact)
	}
	return nil
}

// matchFuzzy implements stage 2: whole-transcript normalized Levenshtein
// similarity against every entry. Strictly-above-threshold candidates only;
// the first entry with the maximum similarity wins.
func (m *Matcher) matchFuzzy(normalized string) *Result {
	var (
		best    phrase.VersePhrase
		bestSim float64
		found   bool
	)

	for _, e := range m.table.Entries() {
		sim := Similarity(normalized, e.Phrase)
		if sim <= m.fuzzyThreshold {
			continue
		}
		if !found || sim > bestSim {
			best = e
			bestSim = sim
			found = true
		}
	}

	if !found {
		return nil
	}
	return resultFor(best, best.Phrase, bestSim, TypeFuzzy)
}

// matchRemote implements stage 3. The raw transcript is submitted, not the
// normalized form: the remote endpoint does its own tokenization and may
// make use of casing or punctuation the local stages throw away.
func (m *Matcher) matchRemote(ctx context.Context, transcript string) *Result {
	if m.remote == nil {
		return nil
	}

	verses, err := m.remote.Search(ctx, transcript)
	if err != nil {
		slog.Warn("match: remote search failed",
			"transcript", transcript,
			"error", err,
		)
		return nil
	}
	if len(verses) == 0 {
		return nil
	}

	v := verses[0]
	ref := quran.Ref{Surah: v.Surah, Ayah: v.Ayah}
	if !ref.Valid() {
		slog.Warn("match: remote search returned invalid reference",
			"surah", v.Surah, "ayah", v.Ayah,
		)
		return nil
	}

	return &Result{
		Surah:       v.Surah,
		Ayah:        v.Ayah,
		SurahName:   quran.SurahName(v.Surah),
		MatchedText: v.Text,
		Confidence:  remoteConfidence,
		Type:        TypeRemoteSearch,
	}
}

// containsPhrase reports whether p occurs inside transcript. Short
// reference phrases are expected to appear inside longer spoken utterances,
// never the other way around.
func containsPhrase(transcript, p string) bool {
	return p != "" && strings.Contains(transcript, p)
}

// resultFor builds a Result for a phrase-table entry.
func resultFor(e phrase.VersePhrase, matched string, confidence float64, t Type) *Result {
	return &Result{
		Surah:       e.Surah,
		Ayah:        e.Ayah,
		SurahName:   quran.SurahName(e.Surah),
		MatchedText: matched,
		Confidence:  confidence,
		Type:        t,
	}
}
