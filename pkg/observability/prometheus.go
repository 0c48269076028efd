package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of Prometheus collectors.
type Prometheus struct {
	resolveTotal    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	resolveNodes    prometheus.Histogram
	diagnostics     prometheus.Counter
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	cacheTotal      *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpTotal       *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpErrors      *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
// It panics if a collector is already registered, like MustRegister.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytunnel_resolve_total",
				Help: "Number of Resolve calls by outcome.",
			},
			[]string{"outcome"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "polytunnel_resolve_duration_seconds",
				Help:    "Time taken to resolve a set of roots.",
				Buckets: prometheus.DefBuckets,
			},
		),
		resolveNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "polytunnel_resolve_nodes",
				Help:    "Number of graph nodes recorded per Resolve call.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		diagnostics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "polytunnel_resolve_diagnostics_total",
				Help: "Total number of diagnostics reported by Resolve.",
			},
		),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytunnel_pom_fetch_total",
				Help: "Number of effective POM fetches by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "polytunnel_pom_fetch_duration_seconds",
				Help:    "Time taken to fetch an effective POM including its parents.",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytunnel_cache_operations_total",
				Help: "Cache operations by key type and result.",
			},
			[]string{"key_type", "result"},
		),
		cacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "polytunnel_cache_written_bytes_total",
				Help: "Bytes written to the cache.",
			},
		),
		httpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytunnel_http_requests_total",
				Help: "Repository HTTP responses by host and status code.",
			},
			[]string{"host", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polytunnel_http_request_duration_seconds",
				Help:    "Repository HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytunnel_http_errors_total",
				Help: "Repository HTTP requests that failed without a response.",
			},
			[]string{"host"},
		),
	}

	reg.MustRegister(
		p.resolveTotal,
		p.resolveDuration,
		p.resolveNodes,
		p.diagnostics,
		p.fetchTotal,
		p.fetchDuration,
		p.cacheTotal,
		p.cacheBytes,
		p.httpTotal,
		p.httpDuration,
		p.httpErrors,
	)
	return p
}

// Register installs p as the resolve, cache and HTTP hooks.
func (p *Prometheus) Register() {
	SetResolveHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnResolveStart(context.Context, int) {}

func (p *Prometheus) OnResolveComplete(_ context.Context, nodes, diagnostics int, d time.Duration, err error) {
	p.resolveTotal.WithLabelValues(outcome(err)).Inc()
	p.resolveDuration.Observe(d.Seconds())
	p.resolveNodes.Observe(float64(nodes))
	p.diagnostics.Add(float64(diagnostics))
}

func (p *Prometheus) OnFetch(_ context.Context, _ string, d time.Duration, err error) {
	p.fetchTotal.WithLabelValues(outcome(err)).Inc()
	p.fetchDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheTotal.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	p.httpTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpErrors.WithLabelValues(host).Inc()
}

var (
	_ ResolveHooks = (*Prometheus)(nil)
	_ CacheHooks   = (*Prometheus)(nil)
	_ HTTPHooks    = (*Prometheus)(nil)
)
