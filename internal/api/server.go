// Package api exposes the verse matching and search services over HTTP.
//
// Routes:
//
//   - POST /v1/match             — run a transcript through the matching cascade
//   - POST /v1/search            — fuzzy search the verse corpus
//   - GET  /v1/verses/:surah/:ayah — look up one verse
//   - POST /v1/transcribe-match  — transcribe uploaded audio, then match it
//   - GET  /v1/matchlog          — list recent match outcomes
//   - GET  /healthz, /readyz     — probes
//   - GET  /metrics              — Prometheus scrape endpoint
//
// Endpoints whose backing dependency is not configured (transcriber, match
// log) are simply not registered.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IbrahimUsmani118/versenav/internal/corpus"
	"github.com/IbrahimUsmani118/versenav/internal/health"
	"github.com/IbrahimUsmani118/versenav/internal/match"
	"github.com/IbrahimUsmani118/versenav/internal/matchlog"
	"github.com/IbrahimUsmani118/versenav/internal/observe"
	"github.com/IbrahimUsmani118/versenav/internal/stt"
)

// Deps carries the server's dependencies. Matcher, Corpus, and Metrics are
// required; the rest may be nil to disable their endpoints.
type Deps struct {
	Matcher *match.Matcher
	Corpus  *corpus.Service
	Metrics *observe.Metrics

	// Transcriber enables POST /v1/transcribe-match.
	Transcriber stt.Transcriber

	// MatchLog enables GET /v1/matchlog and match outcome persistence.
	MatchLog *matchlog.Store

	// Health serves the probe endpoints. Nil installs a probe-less server
	// (tests).
	Health *health.Handler

	// RecentLimit caps /v1/matchlog listings. 0 selects the store default.
	RecentLimit int
}

// Server is the versenav HTTP server.
type Server struct {
	echo *echo.Echo
	deps Deps
}

// New assembles the echo instance with all middleware and routes.
func New(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(observe.Middleware(deps.Metrics))

	s := &Server{echo: e, deps: deps}

	v1 := e.Group("/v1")
	v1.POST("/match", s.handleMatch)
	v1.POST("/search", s.handleSearch)
	v1.GET("/verses/:surah/:ayah", s.handleVerse)
	if deps.Transcriber != nil {
		v1.POST("/transcribe-match", s.handleTranscribeMatch)
	}
	if deps.MatchLog != nil {
		v1.GET("/matchlog", s.handleMatchLog)
	}

	if deps.Health != nil {
		deps.Health.Register(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// StartTLS begins serving TLS on addr and blocks until the server stops.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	return s.echo.StartTLS(addr, certFile, keyFile)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
