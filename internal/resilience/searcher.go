package resilience

import (
	"context"

	"github.com/IbrahimUsmani118/versenav/internal/match"
	"github.com/IbrahimUsmani118/versenav/internal/observe"
)

// Ensure GuardedSearcher satisfies the matcher's searcher contract.
var _ match.RemoteSearcher = (*GuardedSearcher)(nil)

// GuardedSearcher wraps a remote verse searcher with a circuit breaker.
// While the breaker is open, Search fails immediately with [ErrOpen]; the
// matching cascade treats that like any other remote failure and returns
// no match instead of blocking.
type GuardedSearcher struct {
	inner   match.RemoteSearcher
	breaker *Breaker
	metrics *observe.Metrics
}

// SearcherOption configures a GuardedSearcher.
type SearcherOption func(*GuardedSearcher)

// WithMetrics counts every failed Search on the remote search error metric.
// Breaker-open rejections count too: each one is a match attempt that could
// not reach the remote endpoint.
func WithMetrics(m *observe.Metrics) SearcherOption {
	return func(g *GuardedSearcher) {
		g.metrics = m
	}
}

// NewGuardedSearcher wraps inner with a breaker built from cfg.
func NewGuardedSearcher(inner match.RemoteSearcher, cfg BreakerConfig, opts ...SearcherOption) *GuardedSearcher {
	if cfg.Name == "" {
		cfg.Name = "remote-search"
	}
	g := &GuardedSearcher{
		inner:   inner,
		breaker: NewBreaker(cfg),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search implements match.RemoteSearcher.
func (g *GuardedSearcher) Search(ctx context.Context, query string) ([]match.RemoteVerse, error) {
	var verses []match.RemoteVerse
	err := g.breaker.Do(func() error {
		var err error
		verses, err = g.inner.Search(ctx, query)
		return err
	})
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordRemoteSearchError(ctx)
		}
		return nil, err
	}
	return verses, nil
}

// BreakerState exposes the breaker state for readiness reporting.
func (g *GuardedSearcher) BreakerState() State {
	return g.breaker.State()
}
