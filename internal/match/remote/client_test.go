package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IbrahimUsmani118/versenav/internal/match/remote"
)

func TestSearch_SendsQueryAndParsesResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}

		var body struct {
			Query   string `json:"query"`
			Edition string `json:"edition"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body.Query != "the most merciful" {
			t.Errorf("query = %q, want the raw query", body.Query)
		}
		if body.Edition != "en.sahih" {
			t.Errorf("edition = %q, want en.sahih", body.Edition)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"surah": 55, "ayah": 1, "text": "الرَّحْمَٰنُ", "edition": "quran-simple"},
			{"surah": 1, "ayah": 3, "text": "الرَّحْمَٰنِ الرَّحِيمِ", "edition": "quran-simple"}
		]`))
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL, remote.WithEdition("en.sahih"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	verses, err := c.Search(context.Background(), "the most merciful")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(verses) != 2 {
		t.Fatalf("got %d verses, want 2", len(verses))
	}
	if verses[0].Surah != 55 || verses[0].Ayah != 1 {
		t.Errorf("first result = %d:%d, want 55:1", verses[0].Surah, verses[0].Ayah)
	}
}

func TestSearch_HTTPErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("Search: expected error for HTTP 502, got nil")
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not": "an array"`))
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("Search: expected parse error, got nil")
	}
}

func TestSearch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Search(ctx, "x"); err == nil {
		t.Fatal("Search: expected error for cancelled context, got nil")
	}
}

func TestNew_EmptyEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := remote.New(""); err == nil {
		t.Fatal("New(\"\"): expected error, got nil")
	}
}
