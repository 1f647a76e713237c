package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/IbrahimUsmani118/versenav/internal/match"
	"github.com/IbrahimUsmani118/versenav/internal/observe"
)

var errBackend = errors.New("backend down")

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: err = %v, want backend error", i, err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v after 2 of 3 failures, want closed", b.State())
	}

	// A success resets the failure run.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}
	for i := 0; i < 2; i++ {
		b.Do(func() error { return errBackend })
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed: success must reset the failure count", b.State())
	}
}

func TestBreaker_OpensAtThresholdAndRejects(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 2, Cooldown: time.Hour})

	b.Do(func() error { return errBackend })
	b.Do(func() error { return errBackend })

	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn was invoked while the breaker was open")
	}
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, Cooldown: time.Millisecond})

	b.Do(func() error { return errBackend })
	time.Sleep(5 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v after cooldown, want half-open", b.State())
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v after successful probe, want closed", b.State())
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, Cooldown: time.Millisecond})

	b.Do(func() error { return errBackend })
	time.Sleep(5 * time.Millisecond)

	if err := b.Do(func() error { return errBackend }); !errors.Is(err, errBackend) {
		t.Fatalf("probe err = %v, want backend error", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state = %v after failed probe, want open", b.State())
	}
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v immediately after re-open, want ErrOpen", err)
	}
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, Cooldown: time.Hour})

	b.Do(func() error { return errBackend })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	b.Reset()
	if b.State() != StateClosed {
		t.Fatalf("state = %v after Reset, want closed", b.State())
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("call after Reset: %v", err)
	}
}

func TestBreaker_Defaults(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{})
	if b.threshold != 3 {
		t.Errorf("threshold = %d, want 3", b.threshold)
	}
	if b.cooldown != 15*time.Second {
		t.Errorf("cooldown = %v, want 15s", b.cooldown)
	}
}

type scriptedSearcher struct {
	calls int
	err   error
}

func (s *scriptedSearcher) Search(ctx context.Context, query string) ([]match.RemoteVerse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []match.RemoteVerse{{Surah: 55, Ayah: 1, Text: "الرحمن"}}, nil
}

func TestGuardedSearcher_PassesThroughResults(t *testing.T) {
	t.Parallel()

	inner := &scriptedSearcher{}
	g := NewGuardedSearcher(inner, BreakerConfig{FailureThreshold: 2})

	verses, err := g.Search(context.Background(), "ar rahman")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(verses) != 1 || verses[0].Surah != 55 {
		t.Errorf("unexpected verses %+v", verses)
	}
}

func TestGuardedSearcher_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedSearcher{err: errBackend}
	g := NewGuardedSearcher(inner, BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := g.Search(context.Background(), "q"); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	if _, err := g.Search(context.Background(), "q"); !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner searcher called %d times, want 2 (open breaker must short-circuit)", inner.calls)
	}
	if g.BreakerState() != StateOpen {
		t.Errorf("BreakerState() = %v, want open", g.BreakerState())
	}
}

// remoteSearchErrors reads the remote search error counter value from the
// reader, or 0 when nothing has been recorded yet.
func remoteSearchErrors(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "versenav.remote_search.errors" {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", met.Name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestGuardedSearcher_CountsFailures(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	inner := &scriptedSearcher{err: errBackend}
	g := NewGuardedSearcher(inner,
		BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour},
		WithMetrics(metrics))

	// Two backend failures open the breaker; the third call is rejected
	// open. All three count as remote search errors.
	for i := 0; i < 3; i++ {
		if _, err := g.Search(context.Background(), "q"); err == nil {
			t.Fatalf("call %d: err = nil, want failure", i)
		}
	}
	if got := remoteSearchErrors(t, reader); got != 3 {
		t.Errorf("error counter = %d, want 3", got)
	}

	// A success must not move the counter.
	inner.err = nil
	g.breaker.Reset()
	if _, err := g.Search(context.Background(), "q"); err != nil {
		t.Fatalf("Search after reset: %v", err)
	}
	if got := remoteSearchErrors(t, reader); got != 3 {
		t.Errorf("error counter = %d after success, want 3", got)
	}
}
