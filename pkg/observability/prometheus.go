package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements every hook interface by recording Prometheus
// metrics in its own registry.
type PrometheusHooks struct {
	registry *prometheus.Registry

	DanglingReferencesTotal *prometheus.CounterVec
	GraphNodes              prometheus.Histogram
	GraphEdges              prometheus.Histogram

	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutInFlight prometheus.Gauge

	MetricScore *prometheus.GaugeVec

	CacheOpsTotal  *prometheus.CounterVec
	CacheSetBytes  prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewPrometheusHooks creates hooks registered with reg. A nil reg gets a
// fresh registry.
func NewPrometheusHooks(reg *prometheus.Registry) *PrometheusHooks {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 8)

	return &PrometheusHooks{
		registry: reg,
		DanglingReferencesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelgraph_dangling_references_total",
			Help: "Edges skipped during graph construction because their target was not loaded",
		}, []string{"kind"}),
		GraphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelgraph_graph_nodes",
			Help:    "Number of nodes in built graphs",
			Buckets: sizeBuckets,
		}),
		GraphEdges: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelgraph_graph_edges",
			Help:    "Number of edges in built graphs",
			Buckets: sizeBuckets,
		}),
		LayoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelgraph_layouts_total",
			Help: "Layout backend invocations by algorithm and result",
		}, []string{"algorithm", "result"}),
		LayoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelgraph_layout_duration_seconds",
			Help:    "Duration of layout backend invocations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"algorithm"}),
		LayoutInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "modelgraph_layouts_in_flight",
			Help: "Layout backend invocations currently running",
		}),
		MetricScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modelgraph_layout_metric_score",
			Help: "Most recent value of each layout quality metric",
		}, []string{"metric"}),
		CacheOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelgraph_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		CacheSetBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelgraph_cache_set_bytes",
			Help:    "Size of cache writes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelgraph_http_requests_total",
			Help: "HTTP API requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelgraph_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the hooks record into.
func (p *PrometheusHooks) Registry() *prometheus.Registry { return p.registry }

// Install registers p for every hook category.
func (p *PrometheusHooks) Install() {
	SetBuildHooks(p)
	SetLayoutHooks(p)
	SetMetricHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *PrometheusHooks) OnDanglingReference(kind, _, _ string) {
	p.DanglingReferencesTotal.WithLabelValues(kind).Inc()
}

func (p *PrometheusHooks) OnGraphBuilt(nodeCount, edgeCount, _ int) {
	p.GraphNodes.Observe(float64(nodeCount))
	p.GraphEdges.Observe(float64(edgeCount))
}

func (p *PrometheusHooks) OnLayoutStart(_ context.Context, _ string, _ int) {
	p.LayoutInFlight.Inc()
}

func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, algorithm string, d time.Duration, err error) {
	p.LayoutInFlight.Dec()
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.LayoutsTotal.WithLabelValues(algorithm, result).Inc()
	p.LayoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnMetricComputed(name string, value float64) {
	p.MetricScore.WithLabelValues(name).Set(value)
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
	p.CacheSetBytes.Observe(float64(size))
}

func (p *PrometheusHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	p.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ BuildHooks  = (*PrometheusHooks)(nil)
	_ LayoutHooks = (*PrometheusHooks)(nil)
	_ MetricHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
