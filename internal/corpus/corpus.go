// Package corpus provides the full-Quran verse corpus and the fuzzy search
// service over it.
//
// The corpus is loaded once at startup from a nested JSON dataset and
// flattened into an immutable verse list. The search index is swapped
// atomically on load, so concurrent searches are safe without locking;
// searches issued before the first load fail fast with [ErrNotLoaded].
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

// Verse is one flattened corpus record.
type Verse struct {
	Surah   int    `json:"surah"`
	Ayah    int    `json:"ayah"`
	Arabic  string `json:"arabic"`
	English string `json:"english"`
}

// Dataset is the nested on-disk corpus structure.
type Dataset struct {
	Surahs []DatasetSurah `json:"surahs"`
}

// DatasetSurah is one surah in the nested dataset.
type DatasetSurah struct {
	Number int           `json:"number"`
	Ayahs  []DatasetAyah `json:"ayahs"`
}

// DatasetAyah is one ayah in the nested dataset.
type DatasetAyah struct {
	Number  int    `json:"number"`
	Arabic  string `json:"arabic"`
	English string `json:"english"`
}

// LoadFile reads and validates a corpus dataset from a JSON file.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %q: %w", path, err)
	}
	defer f.Close()

	ds, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: parse %q: %w", path, err)
	}
	return ds, nil
}

// LoadFromReader decodes and validates a corpus dataset from r.
func LoadFromReader(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("corpus: decode json: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the dataset for structural defects. Malformed data must
// surface at load time, never as a silently empty index.
func (ds *Dataset) Validate() error {
	if len(ds.Surahs) == 0 {
		return errors.New("corpus: dataset contains no surahs")
	}

	var errs []error
	for i, s := range ds.Surahs {
		prefix := fmt.Sprintf("surahs[%d]", i)
		if s.Number < 1 || s.Number > quran.SurahCount {
			errs = append(errs, fmt.Errorf("%s.number %d is out of range 1-%d", prefix, s.Number, quran.SurahCount))
			continue
		}
		if len(s.Ayahs) == 0 {
			errs = append(errs, fmt.Errorf("%s (surah %d) contains no ayahs", prefix, s.Number))
		}
		for j, a := range s.Ayahs {
			ref := quran.Ref{Surah: s.Number, Ayah: a.Number}
			if !ref.Valid() {
				errs = append(errs, fmt.Errorf("%s.ayahs[%d]: %s is not a valid verse reference", prefix, j, ref))
			}
			if a.Arabic == "" && a.English == "" {
				errs = append(errs, fmt.Errorf("%s.ayahs[%d]: both text fields are empty", prefix, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Flatten converts the nested dataset into a flat verse list in dataset
// order.
func (ds *Dataset) Flatten() []Verse {
	var verses []Verse
	for _, s := range ds.Surahs {
		for _, a := range s.Ayahs {
			verses = append(verses, Verse{
				Surah:   s.Number,
				Ayah:    a.Number,
				Arabic:  a.Arabic,
				English: a.English,
			})
		}
	}
	return verses
}
