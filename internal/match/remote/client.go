// Package remote implements the [match.RemoteSearcher] interface against an
// external full-text corpus search endpoint.
//
// The endpoint accepts a JSON body {query, surahFilter?, edition?} via POST
// and returns a JSON array of {surah, ayah, text, edition} rows ranked by
// the endpoint's own relevance. The client does not re-score results.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IbrahimUsmani118/versenav/internal/match"
)

const defaultTimeout = 10 * time.Second

// Compile-time assertion that Client implements match.RemoteSearcher.
var _ match.RemoteSearcher = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithEdition sets the text edition requested from the endpoint (e.g.
// "en.sahih"). When empty the endpoint's default edition applies.
func WithEdition(edition string) Option {
	return func(c *Client) {
		c.edition = edition
	}
}

// WithSurahFilter restricts searches to a single surah. Zero (the default)
// searches the whole corpus.
func WithSurahFilter(surah int) Option {
	return func(c *Client) {
		c.surahFilter = surah
	}
}

// WithHTTPClient replaces the underlying HTTP client. Useful in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is an HTTP client for the corpus search endpoint. It is read-only
// after construction and safe for concurrent use.
type Client struct {
	endpoint    string
	edition     string
	surahFilter int
	httpClient  *http.Client
}

// New creates a Client for the search endpoint at endpoint
// (e.g. "https://api.example.org/v1/search"). endpoint must be non-empty.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("remote: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// searchRequest is the JSON body sent to the endpoint.
type searchRequest struct {
	Query       string `json:"query"`
	SurahFilter int    `json:"surahFilter,omitempty"`
	Edition     string `json:"edition,omitempty"`
}

// Search implements match.RemoteSearcher.
func (c *Client) Search(ctx context.Context, query string) ([]match.RemoteVerse, error) {
	body, err := json.Marshal(searchRequest{
		Query:       query,
		SurahFilter: c.surahFilter,
		Edition:     c.edition,
	})
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response body: %w", err)
	}

	var verses []match.RemoteVerse
	if err := json.Unmarshal(data, &verses); err != nil {
		return nil, fmt.Errorf("remote: parse JSON response: %w", err)
	}
	return verses, nil
}
