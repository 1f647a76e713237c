package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Ensure Whisper implements the Transcriber interface.
var _ Transcriber = (*Whisper)(nil)

// Whisper implements Transcriber using the OpenAI audio transcription API.
type Whisper struct {
	client   oai.Client
	model    oai.AudioModel
	language string
	prompt   string
}

// config holds optional configuration for the transcriber.
type config struct {
	model    string
	baseURL  string
	language string
	prompt   string
	timeout  time.Duration
	retries  int
	setRetry bool
}

// Option is a functional option for Whisper.
type Option func(*config)

// WithModel overrides the default transcription model.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithLanguage hints the spoken language as an ISO-639-1 code ("ar", "en").
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithPrompt supplies vocabulary context to steer the recognizer, for
// example a list of surah names the speaker is likely to say.
func WithPrompt(prompt string) Option {
	return func(c *config) {
		c.prompt = prompt
	}
}

// WithRetries sets the number of automatic retries on retryable API
// errors. The client library default is two.
func WithRetries(n int) Option {
	return func(c *config) {
		c.retries = n
		c.setRetry = true
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// NewWhisper constructs a Whisper transcriber.
func NewWhisper(apiKey string, opts ...Option) (*Whisper, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stt: apiKey must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.model == "" {
		cfg.model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}
	if cfg.setRetry {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.retries))
	}

	return &Whisper{
		client:   oai.NewClient(reqOpts...),
		model:    oai.AudioModel(cfg.model),
		language: cfg.language,
		prompt:   cfg.prompt,
	}, nil
}

// ModelID returns the configured model name.
func (w *Whisper) ModelID() string {
	return string(w.model)
}

// Transcribe implements Transcriber.
func (w *Whisper) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "audio.wav"
	}

	params := oai.AudioTranscriptionNewParams{
		Model: w.model,
		File:  oai.File(r, filename, "application/octet-stream"),
	}
	if w.language != "" {
		params.Language = param.NewOpt(w.language)
	}
	if w.prompt != "" {
		params.Prompt = param.NewOpt(w.prompt)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("stt: transcribe: %w", err)
	}
	return resp.Text, nil
}
