// Command versenav is the Quran verse navigation server: it matches voice
// transcripts to verses and serves fuzzy search over the full corpus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/IbrahimUsmani118/versenav/internal/api"
	"github.com/IbrahimUsmani118/versenav/internal/config"
	"github.com/IbrahimUsmani118/versenav/internal/corpus"
	"github.com/IbrahimUsmani118/versenav/internal/health"
	"github.com/IbrahimUsmani118/versenav/internal/match"
	"github.com/IbrahimUsmani118/versenav/internal/match/remote"
	"github.com/IbrahimUsmani118/versenav/internal/matchlog"
	"github.com/IbrahimUsmani118/versenav/internal/observe"
	"github.com/IbrahimUsmani118/versenav/internal/phrase"
	"github.com/IbrahimUsmani118/versenav/internal/resilience"
	"github.com/IbrahimUsmani118/versenav/internal/stt"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "versenav: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "versenav: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("versenav starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "versenav",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Phrase table and matcher ──────────────────────────────────────────────
	table := phrase.Default()
	if cfg.Matcher.PhraseFile != "" {
		table, err = phrase.LoadFile(cfg.Matcher.PhraseFile)
		if err != nil {
			slog.Error("failed to load phrase table", "err", err)
			return 1
		}
	}

	var matchOpts []match.Option
	if cfg.Matcher.FuzzyThreshold > 0 {
		matchOpts = append(matchOpts, match.WithFuzzyThreshold(cfg.Matcher.FuzzyThreshold))
	}
	if cfg.Matcher.PhoneticThreshold > 0 {
		matchOpts = append(matchOpts, match.WithPhoneticAssist(cfg.Matcher.PhoneticThreshold))
	}

	if cfg.Remote.Endpoint != "" {
		var remoteOpts []remote.Option
		if cfg.Remote.Edition != "" {
			remoteOpts = append(remoteOpts, remote.WithEdition(cfg.Remote.Edition))
		}
		if cfg.Remote.SurahFilter > 0 {
			remoteOpts = append(remoteOpts, remote.WithSurahFilter(cfg.Remote.SurahFilter))
		}
		if cfg.Remote.TimeoutSeconds > 0 {
			remoteOpts = append(remoteOpts, remote.WithTimeout(time.Duration(cfg.Remote.TimeoutSeconds)*time.Second))
		}
		client, err := remote.New(cfg.Remote.Endpoint, remoteOpts...)
		if err != nil {
			slog.Error("failed to create remote search client", "err", err)
			return 1
		}
		guarded := resilience.NewGuardedSearcher(client, resilience.BreakerConfig{
			Name:             "remote-search",
			FailureThreshold: cfg.Remote.Breaker.FailureThreshold,
			Cooldown:         time.Duration(cfg.Remote.Breaker.CooldownSeconds) * time.Second,
		}, resilience.WithMetrics(metrics))
		matchOpts = append(matchOpts, match.WithRemoteSearcher(guarded))
		slog.Info("remote search fallback enabled", "endpoint", cfg.Remote.Endpoint)
	}

	matcher := match.New(table, matchOpts...)
	slog.Info("phrase table loaded", "phrases", table.Len())

	// ── Verse corpus ──────────────────────────────────────────────────────────
	var corpusOpts []corpus.ServiceOption
	if cfg.Search.Threshold > 0 {
		corpusOpts = append(corpusOpts, corpus.WithThreshold(cfg.Search.Threshold))
	}
	if cfg.Search.MinMatchChars > 0 {
		corpusOpts = append(corpusOpts, corpus.WithMinMatchChars(cfg.Search.MinMatchChars))
	}
	if cfg.Search.DefaultLimit > 0 {
		corpusOpts = append(corpusOpts, corpus.WithDefaultLimit(cfg.Search.DefaultLimit))
	}
	corpusSvc := corpus.NewService(corpusOpts...)

	if cfg.Search.CorpusFile != "" {
		ds, err := corpus.LoadFile(cfg.Search.CorpusFile)
		if err != nil {
			slog.Error("failed to load verse corpus", "err", err)
			return 1
		}
		if err := corpusSvc.LoadData(ds); err != nil {
			slog.Error("failed to index verse corpus", "err", err)
			return 1
		}
		metrics.SetCorpusVerses(ctx, 0, corpusSvc.Len())
		slog.Info("verse corpus loaded", "verses", corpusSvc.Len())
	}

	// ── Transcription (optional) ──────────────────────────────────────────────
	var transcriber stt.Transcriber
	apiKey := cfg.Transcription.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		var sttOpts []stt.Option
		if cfg.Transcription.Model != "" {
			sttOpts = append(sttOpts, stt.WithModel(cfg.Transcription.Model))
		}
		if cfg.Transcription.BaseURL != "" {
			sttOpts = append(sttOpts, stt.WithBaseURL(cfg.Transcription.BaseURL))
		}
		if cfg.Transcription.Language != "" {
			sttOpts = append(sttOpts, stt.WithLanguage(cfg.Transcription.Language))
		}
		if cfg.Transcription.Prompt != "" {
			sttOpts = append(sttOpts, stt.WithPrompt(cfg.Transcription.Prompt))
		}
		timeout := 60 * time.Second
		if cfg.Transcription.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.Transcription.TimeoutSeconds) * time.Second
		}
		sttOpts = append(sttOpts, stt.WithTimeout(timeout))

		transcriber, err = stt.NewWhisper(apiKey, sttOpts...)
		if err != nil {
			slog.Error("failed to create transcriber", "err", err)
			return 1
		}
		slog.Info("transcription enabled", "model", cfg.Transcription.Model)
	}

	// ── Match log (optional) ──────────────────────────────────────────────────
	var store *matchlog.Store
	var pool *pgxpool.Pool
	if cfg.MatchLog.PostgresDSN != "" {
		pool, err = pgxpool.New(ctx, cfg.MatchLog.PostgresDSN)
		if err != nil {
			slog.Error("failed to create database pool", "err", err)
			return 1
		}
		defer pool.Close()

		store = matchlog.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate match log schema", "err", err)
			return 1
		}
		slog.Info("match log enabled")
	}

	// ── Readiness checks ──────────────────────────────────────────────────────
	checkers := []health.Checker{health.CorpusLoaded(corpusSvc.Loaded)}
	if pool != nil {
		checkers = append(checkers, health.Database(pool))
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	server := api.New(api.Deps{
		Matcher:     matcher,
		Corpus:      corpusSvc,
		Metrics:     metrics,
		Transcriber: transcriber,
		MatchLog:    store,
		Health:      health.New(checkers...),
		RecentLimit: cfg.MatchLog.RecentLimit,
	})

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = server.StartTLS(addr, tls.CertFile, tls.KeyFile)
		} else {
			err = server.Start(addr)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// version is stamped via -ldflags at release time.
var version = "dev"

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
