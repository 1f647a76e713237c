// Package phrase holds the transliterated phrase table used for local verse
// matching. Each entry maps a normalized transliterated phrase to the verse
// it comes from. The table is loaded once (from YAML or the embedded
// default) and is read-only afterwards, so it is safe to share across
// request handlers without locking.
//
// Declaration order matters: the substring matcher treats the table as a
// fixed priority list and returns the first containing entry.
package phrase

import (
	"errors"
	"fmt"

	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

// VersePhrase is one phrase-table entry.
type VersePhrase struct {
	// Phrase is the normalized transliterated lookup key: lowercase, no
	// diacritics, single spaces.
	Phrase string `yaml:"phrase"`

	// Surah is the source surah number, 1-114.
	Surah int `yaml:"surah"`

	// Ayah is the source ayah number within the surah.
	Ayah int `yaml:"ayah"`

	// ArabicText is the reference Arabic rendering of the source verse.
	ArabicText string `yaml:"arabic_text"`
}

// Ref returns the verse reference for this entry.
func (p VersePhrase) Ref() quran.Ref {
	return quran.Ref{Surah: p.Surah, Ayah: p.Ayah}
}

// Table is an ordered, read-only phrase list.
type Table struct {
	entries []VersePhrase
}

// NewTable builds a validated Table from entries, preserving order.
func NewTable(entries []VersePhrase) (*Table, error) {
	if err := validate(entries); err != nil {
		return nil, err
	}
	copied := make([]VersePhrase, len(entries))
	copy(copied, entries)
	return &Table{entries: copied}, nil
}

// Entries returns the table entries in declaration order. The returned slice
// must not be mutated.
func (t *Table) Entries() []VersePhrase {
	return t.entries
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// validate checks every entry for a non-empty phrase and a reference that
// points at a real verse. All failures are reported together.
func validate(entries []VersePhrase) error {
	if len(entries) == 0 {
		return errors.New("phrase: table must not be empty")
	}

	var errs []error
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		prefix := fmt.Sprintf("phrases[%d]", i)
		if e.Phrase == "" {
			errs = append(errs, fmt.Errorf("%s.phrase must not be empty", prefix))
		} else {
			if prev, ok := seen[e.Phrase]; ok {
				errs = append(errs, fmt.Errorf("%s.phrase %q is a duplicate of phrases[%d]", prefix, e.Phrase, prev))
			}
			seen[e.Phrase] = i
		}
		if !e.Ref().Valid() {
			errs = append(errs, fmt.Errorf("%s: %d:%d is not a valid verse reference", prefix, e.Surah, e.Ayah))
		}
	}

	return errors.Join(errs...)
}
