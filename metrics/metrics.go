// Package metrics exposes Prometheus instrumentation for worker
// services: registry traffic, pointer dereferences, and aggregation
// session outcomes, served on a dedicated listener.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters worker services update.
type Metrics struct {
	ResolvesTotal      prometheus.Counter
	ResolveMissesTotal prometheus.Counter
	ReleasesTotal      prometheus.Counter
	SharesReceived     prometheus.Counter
	SharesRetracted    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the counter set under the given namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		ResolvesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_resolves_total",
			Help:      "Remote object resolutions served by this worker.",
		}),
		ResolveMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_resolve_misses_total",
			Help:      "Resolutions that failed because the identifier was unknown.",
		}),
		ReleasesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_releases_total",
			Help:      "Remote release requests served by this worker.",
		}),
		SharesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_received_total",
			Help:      "Share packages accepted into the inbox.",
		}),
		SharesRetracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_retracted_total",
			Help:      "Sessions retracted after aborted distribution.",
		}),
		registry: reg,
	}
}

// MetricsServer serves the metrics registry over HTTP.
type MetricsServer struct {
	Metrics *Metrics
	srv     *http.Server
}

// New creates a metrics server listening on addr. An empty addr yields a
// server that never listens but still collects.
func New(namespace, addr string) (*MetricsServer, error) {
	m := NewMetrics(namespace)

	ms := &MetricsServer{Metrics: m}
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
		ms.srv = &http.Server{Addr: addr, Handler: mux}
	}
	return ms, nil
}

// ListenAndServe blocks serving metrics until Shutdown.
func (ms *MetricsServer) ListenAndServe() error {
	if ms.srv == nil {
		return nil
	}
	return ms.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	if ms.srv == nil {
		return nil
	}
	return ms.srv.Shutdown(ctx)
}
