package corpus_test

import (
	"strings"
	"testing"

	"github.com/IbrahimUsmani118/versenav/internal/corpus"
)

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	data := `{
	  "surahs": [
	    {
	      "number": 1,
	      "ayahs": [
	        {"number": 1, "arabic": "بسم الله الرحمن الرحيم", "english": "In the name of Allah"},
	        {"number": 2, "arabic": "الحمد لله رب العالمين", "english": "All praise is due to Allah"}
	      ]
	    },
	    {
	      "number": 114,
	      "ayahs": [
	        {"number": 6, "arabic": "من الجنة والناس", "english": "From among the jinn and mankind"}
	      ]
	    }
	  ]
	}`

	ds, err := corpus.LoadFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	verses := ds.Flatten()
	if len(verses) != 3 {
		t.Fatalf("got %d verses, want 3", len(verses))
	}
	last := verses[2]
	if last.Surah != 114 || last.Ayah != 6 {
		t.Errorf("last verse = %d:%d, want 114:6", last.Surah, last.Ayah)
	}
}

func TestLoadFromReader_MalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := corpus.LoadFromReader(strings.NewReader(`{"surahs": [`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestDatasetValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ds      corpus.Dataset
		wantErr string
	}{
		{
			name:    "no surahs",
			ds:      corpus.Dataset{},
			wantErr: "no surahs",
		},
		{
			name: "surah number out of range",
			ds: corpus.Dataset{Surahs: []corpus.DatasetSurah{
				{Number: 115, Ayahs: []corpus.DatasetAyah{{Number: 1, Arabic: "x"}}},
			}},
			wantErr: "115",
		},
		{
			name: "surah without ayahs",
			ds: corpus.Dataset{Surahs: []corpus.DatasetSurah{
				{Number: 1},
			}},
			wantErr: "no ayahs",
		},
		{
			name: "ayah beyond surah length",
			ds: corpus.Dataset{Surahs: []corpus.DatasetSurah{
				{Number: 1, Ayahs: []corpus.DatasetAyah{{Number: 8, Arabic: "x"}}},
			}},
			wantErr: "1:8",
		},
		{
			name: "ayah with no text in either language",
			ds: corpus.Dataset{Surahs: []corpus.DatasetSurah{
				{Number: 1, Ayahs: []corpus.DatasetAyah{{Number: 1}}},
			}},
			wantErr: "both text fields are empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.ds.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestDatasetValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	ds := corpus.Dataset{Surahs: []corpus.DatasetSurah{
		{Number: 0, Ayahs: []corpus.DatasetAyah{{Number: 1, Arabic: "x"}}},
		{Number: 2, Ayahs: []corpus.DatasetAyah{{Number: 1}}},
	}}

	err := ds.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"out of range", "both text fields are empty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %q does not mention %q", err, want)
		}
	}
}
