package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Matcher
	if t := cfg.Matcher.FuzzyThreshold; t < 0 || t >= 1 {
		errs = append(errs, fmt.Errorf("matcher.fuzzy_threshold %.2f is out of range [0, 1)", t))
	}
	if t := cfg.Matcher.PhoneticThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("matcher.phonetic_threshold %.2f is out of range [0, 1]", t))
	}

	// Search
	if t := cfg.Search.Threshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("search.threshold %.2f is out of range [0, 1]", t))
	}
	if n := cfg.Search.MinMatchChars; n < 0 {
		errs = append(errs, fmt.Errorf("search.min_match_chars %d must not be negative", n))
	}
	if n := cfg.Search.DefaultLimit; n < 0 {
		errs = append(errs, fmt.Errorf("search.default_limit %d must not be negative", n))
	}
	if cfg.Search.CorpusFile == "" {
		slog.Warn("search.corpus_file is empty; search endpoints will stay unavailable")
	}

	// Remote fallback
	if cfg.Remote.Endpoint == "" {
		slog.Warn("remote.endpoint is empty; the remote search stage is disabled")
	}
	if sf := cfg.Remote.SurahFilter; sf < 0 || sf > 114 {
		errs = append(errs, fmt.Errorf("remote.surah_filter %d is out of range [0, 114]", sf))
	}
	if n := cfg.Remote.TimeoutSeconds; n < 0 {
		errs = append(errs, fmt.Errorf("remote.timeout_seconds %d must not be negative", n))
	}
	if n := cfg.Remote.Breaker.FailureThreshold; n < 0 {
		errs = append(errs, fmt.Errorf("remote.breaker.failure_threshold %d must not be negative", n))
	}
	if n := cfg.Remote.Breaker.CooldownSeconds; n < 0 {
		errs = append(errs, fmt.Errorf("remote.breaker.cooldown_seconds %d must not be negative", n))
	}

	// Transcription
	if cfg.Transcription.APIKey == "" {
		slog.Warn("transcription.api_key is empty; falling back to OPENAI_API_KEY, transcribe-match is disabled without it")
	}
	if n := cfg.Transcription.TimeoutSeconds; n < 0 {
		errs = append(errs, fmt.Errorf("transcription.timeout_seconds %d must not be negative", n))
	}

	// Match log
	if cfg.MatchLog.PostgresDSN == "" {
		slog.Warn("match_log.postgres_dsn is empty; match outcomes will not be persisted")
	}
	if n := cfg.MatchLog.RecentLimit; n < 0 {
		errs = append(errs, fmt.Errorf("match_log.recent_limit %d must not be negative", n))
	}

	return errors.Join(errs...)
}
