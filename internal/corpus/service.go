package corpus

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

// ErrNotLoaded is returned by search calls issued before the first
// successful [Service.LoadData]. Callers must retry after the load
// completes; the service never hides the condition behind an empty result.
var ErrNotLoaded = errors.New("corpus: data not loaded")

const (
	// defaultThreshold is the maximum combined score an entry may have to
	// be included in results. Lower values are stricter.
	defaultThreshold = 0.4

	// defaultMinMatchChars is the minimum aligned fragment length: an
	// entry is only considered when at least this many consecutive query
	// characters appear in one of its text fields.
	defaultMinMatchChars = 2

	// defaultLimit is the result cap applied when the caller passes
	// limit <= 0.
	defaultLimit = 3
)

// Result is one ranked search hit. Confidence is (1 - score) * 100,
// clamped to [0, 100] and rounded to two decimals.
type Result struct {
	Surah      int     `json:"surah"`
	Ayah       int     `json:"ayah"`
	SurahName  string  `json:"surahName"`
	Arabic     string  `json:"arabic"`
	English    string  `json:"english"`
	Confidence float64 `json:"confidence"`
}

// index is the immutable search state built by LoadData. It is swapped
// atomically so in-flight searches keep the snapshot they started with.
type index struct {
	verses []Verse
	byRef  map[quran.Ref]int
}

// ServiceOption is a functional option for configuring a [Service].
type ServiceOption func(*Service)

// WithThreshold overrides the inclusion score threshold. Default: 0.4.
func WithThreshold(threshold float64) ServiceOption {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithMinMatchChars overrides the minimum aligned fragment length.
// Default: 2.
func WithMinMatchChars(n int) ServiceOption {
	return func(s *Service) {
		s.minMatchChars = n
	}
}

// WithDefaultLimit overrides the result cap used when the caller passes
// limit <= 0. Default: 3.
func WithDefaultLimit(n int) ServiceOption {
	return func(s *Service) {
		s.defaultLimit = n
	}
}

// Service performs approximate full-text search over the loaded corpus.
// Arabic and English fields carry equal weight; neither is favored.
//
// The lifecycle is one-way: Unloaded until the first successful LoadData,
// Loaded afterwards. There is no unload. Repeated LoadData calls replace
// the index atomically.
type Service struct {
	threshold     float64
	minMatchChars int
	defaultLimit  int

	idx atomic.Pointer[index]
}

// NewService creates an unloaded Service with the supplied options.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		threshold:     defaultThreshold,
		minMatchChars: defaultMinMatchChars,
		defaultLimit:  defaultLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadData validates ds, flattens it, and atomically publishes the new
// index. Idempotent: a later call fully replaces the previous corpus.
func (s *Service) LoadData(ds *Dataset) error {
	if ds == nil {
		return errors.New("corpus: dataset must not be nil")
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	verses := ds.Flatten()
	byRef := make(map[quran.Ref]int, len(verses))
	for i, v := range verses {
		byRef[quran.Ref{Surah: v.Surah, Ayah: v.Ayah}] = i
	}

	s.idx.Store(&index{verses: verses, byRef: byRef})
	return nil
}

// Loaded reports whether a corpus has been published.
func (s *Service) Loaded() bool {
	return s.idx.Load() != nil
}

// Len returns the number of verses in the loaded corpus, 0 when unloaded.
func (s *Service) Len() int {
	idx := s.idx.Load()
	if idx == nil {
		return 0
	}
	return len(idx.verses)
}

// Verse returns the corpus record for the given reference.
// Returns ErrNotLoaded before the first load and false when the reference
// is not in the corpus.
func (s *Service) Verse(surah, ayah int) (Verse, bool, error) {
	idx := s.idx.Load()
	if idx == nil {
		return Verse{}, false, ErrNotLoaded
	}
	i, ok := idx.byRef[quran.Ref{Surah: surah, Ayah: ayah}]
	if !ok {
		return Verse{}, false, nil
	}
	return idx.verses[i], true, nil
}

// FindVerse returns up to limit verses matching text, ordered by
// descending confidence. limit <= 0 selects the default limit.
//
// The not-loaded check runs before the empty-query short-circuit: a search
// against an unloaded service is a caller bug regardless of the query, so
// it always fails with ErrNotLoaded. Once loaded, an empty or
// whitespace-only query yields an empty result list and no error.
func (s *Service) FindVerse(text string, limit int) ([]Result, error) {
	idx := s.idx.Load()
	if idx == nil {
		return nil, ErrNotLoaded
	}

	query := strings.TrimSpace(text)
	if query == "" {
		return []Result{}, nil
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	var results []Result
	for _, v := range idx.verses {
		score, ok := s.scoreVerse(query, v)
		if !ok || score > s.threshold {
			continue
		}
		results = append(results, Result{
			Surah:      v.Surah,
			Ayah:       v.Ayah,
			SurahName:  quran.SurahName(v.Surah),
			Arabic:     v.Arabic,
			English:    v.English,
			Confidence: confidenceFromScore(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []Result{}
	}
	return results, nil
}

// confidenceFromScore converts a [0, 1] distance score into the exported
// percentage confidence: (1 - score) * 100, clamped and rounded to two
// decimals.
func confidenceFromScore(score float64) float64 {
	c := (1 - score) * 100
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return roundTwoDecimals(c)
}
