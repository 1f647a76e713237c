// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics and HTTP middleware that records them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is set up by [InitProvider] so that metrics are scraped
// via the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/IbrahimUsmani118/versenav"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// MatchDuration tracks transcript matching latency across the whole
	// cascade.
	MatchDuration metric.Float64Histogram

	// SearchDuration tracks corpus search latency.
	SearchDuration metric.Float64Histogram

	// TranscribeDuration tracks audio transcription latency.
	TranscribeDuration metric.Float64Histogram

	// Matches counts match attempts. Use with attributes:
	//   attribute.String("match_type", ...), attribute.String("status", ...)
	Matches metric.Int64Counter

	// RemoteSearchErrors counts remote verse search failures.
	RemoteSearchErrors metric.Int64Counter

	// CorpusVerses tracks the number of verses in the loaded corpus.
	CorpusVerses metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...),
	//   attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Matching
// is sub-millisecond in the common case; transcription can take seconds.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.MatchDuration, err = m.Float64Histogram("versenav.match.duration",
		metric.WithDescription("Latency of transcript verse matching."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchDuration, err = m.Float64Histogram("versenav.search.duration",
		metric.WithDescription("Latency of corpus verse search."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("versenav.transcribe.duration",
		metric.WithDescription("Latency of audio transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Matches, err = m.Int64Counter("versenav.matches",
		metric.WithDescription("Total match attempts by match type and status."),
	); err != nil {
		return nil, err
	}
	if met.RemoteSearchErrors, err = m.Int64Counter("versenav.remote_search.errors",
		metric.WithDescription("Total remote verse search failures."),
	); err != nil {
		return nil, err
	}

	if met.CorpusVerses, err = m.Int64UpDownCounter("versenav.corpus.verses",
		metric.WithDescription("Number of verses in the loaded corpus."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("versenav.http.request.duration",
		metric.WithDescription("HTTP request latency by method, path, and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordMatch records one match attempt. matchType is "exact", "fuzzy",
// "remoteSearch", or "none"; status is "hit" or "miss".
func (m *Metrics) RecordMatch(ctx context.Context, matchType, status string) {
	m.Matches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("match_type", matchType),
			attribute.String("status", status),
		),
	)
}

// RecordRemoteSearchError records one remote search failure.
func (m *Metrics) RecordRemoteSearchError(ctx context.Context) {
	m.RemoteSearchErrors.Add(ctx, 1)
}

// SetCorpusVerses moves the corpus size gauge from previous to current.
func (m *Metrics) SetCorpusVerses(ctx context.Context, previous, current int) {
	m.CorpusVerses.Add(ctx, int64(current-previous))
}
