package phrase_test

import (
	"strings"
	"testing"

	"github.com/IbrahimUsmani118/versenav/internal/phrase"
	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	const src = `
phrases:
  - phrase: "bismillah"
    surah: 1
    ayah: 1
    arabic_text: "بِسْمِ اللَّهِ"
  - phrase: "wal asr"
    surah: 103
    ayah: 1
    arabic_text: "وَالْعَصْرِ"
`
	table, err := phrase.LoadFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	first := table.Entries()[0]
	if first.Phrase != "bismillah" || first.Surah != 1 || first.Ayah != 1 {
		t.Errorf("entries[0] = %+v, want bismillah 1:1", first)
	}
}

func TestLoadFromReader_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	const src = `
phrases:
  - phrase: "bismillah"
    surah: 1
    ayah: 1
    arabic_text: "x"
    translit: "typo-field"
`
	if _, err := phrase.LoadFromReader(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_InvalidReferences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{
			name: "surah out of range",
			src: `
phrases:
  - phrase: "x"
    surah: 115
    ayah: 1
`,
		},
		{
			name: "ayah beyond surah length",
			src: `
phrases:
  - phrase: "x"
    surah: 1
    ayah: 8
`,
		},
		{
			name: "zero ayah",
			src: `
phrases:
  - phrase: "x"
    surah: 1
    ayah: 0
`,
		},
		{
			name: "empty phrase",
			src: `
phrases:
  - phrase: ""
    surah: 1
    ayah: 1
`,
		},
		{
			name: "empty table",
			src:  `phrases: []`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := phrase.LoadFromReader(strings.NewReader(tc.src)); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromReader_DuplicatePhrase(t *testing.T) {
	t.Parallel()

	const src = `
phrases:
  - phrase: "bismillah"
    surah: 1
    ayah: 1
  - phrase: "bismillah"
    surah: 1
    ayah: 1
`
	_, err := phrase.LoadFromReader(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected duplicate-phrase error, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error %q does not mention the duplicate", err)
	}
}

func TestDefault_AllReferencesValid(t *testing.T) {
	t.Parallel()

	table := phrase.Default()
	if table.Len() == 0 {
		t.Fatal("embedded table is empty")
	}
	for i, e := range table.Entries() {
		if !e.Ref().Valid() {
			t.Errorf("entries[%d] %q: reference %s is invalid", i, e.Phrase, e.Ref())
		}
		if quran.SurahName(e.Surah) == "" {
			t.Errorf("entries[%d] %q: no surah name for %d", i, e.Phrase, e.Surah)
		}
	}
}

func TestDefault_LongPhrasesBeforePrefixes(t *testing.T) {
	t.Parallel()

	// The substring matcher is first-match: an entry that contains an
	// earlier entry as a substring can never fire unless both point at the
	// same verse.
	entries := phrase.Default().Entries()
	for i, e := range entries {
		for j := 0; j < i; j++ {
			if strings.Contains(e.Phrase, entries[j].Phrase) && e.Ref() != entries[j].Ref() {
				t.Errorf("entries[%d] %q is shadowed by entries[%d] %q with a different reference",
					i, e.Phrase, j, entries[j].Phrase)
			}
		}
	}
}
