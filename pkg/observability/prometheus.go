package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface with prometheus collectors
// registered on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutNodes    prometheus.Histogram

	ParsesTotal   *prometheus.CounterVec
	ParseDuration prometheus.Histogram
	Transitions   *prometheus.CounterVec
	PublishTotal  *prometheus.CounterVec
	FrameNodes    prometheus.Gauge

	StoreOpsTotal    *prometheus.CounterVec
	StoreOpDuration  *prometheus.HistogramVec
	StoreChangeTotal *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec
}

// NewPrometheus creates the collectors on a fresh registry, including the
// standard Go runtime and process collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Prometheus{
		registry: reg,

		LayoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_layouts_total",
			Help: "Total number of layout runs",
		}, []string{"engine", "direction", "status"}),
		LayoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jsonflow_layout_duration_seconds",
			Help:    "Duration of layout runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"engine"}),
		LayoutNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jsonflow_layout_nodes",
			Help:    "Number of nodes per layout run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		ParsesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_parses_total",
			Help: "Total number of document parses",
		}, []string{"status"}),
		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jsonflow_parse_duration_seconds",
			Help:    "Duration of document parses in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_controller_transitions_total",
			Help: "Controller events processed, by event and resulting state",
		}, []string{"event", "from", "to"}),
		PublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_frames_published_total",
			Help: "Frames handed to the render surface",
		}, []string{"state"}),
		FrameNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "jsonflow_frame_nodes",
			Help: "Number of nodes in the last published frame",
		}),

		StoreOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_store_operations_total",
			Help: "Total number of storage operations",
		}, []string{"backend", "op", "status"}),
		StoreOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jsonflow_store_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		StoreChangeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_store_changes_total",
			Help: "Change notifications delivered by storage backends",
		}, []string{"backend"}),

		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_cache_hits_total",
			Help: "Cache hits by key type",
		}, []string{"type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_cache_misses_total",
			Help: "Cache misses by key type",
		}, []string{"type"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonflow_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"type"}),
	}
}

// Registry returns the underlying prometheus registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Register installs p as the layout, controller, store and cache hooks.
func (p *Prometheus) Register() {
	SetLayoutHooks(p)
	SetControllerHooks(p)
	SetStoreHooks(p)
	SetCacheHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnLayoutStart(_ context.Context, _, _ string, nodeCount int) {
	p.LayoutNodes.Observe(float64(nodeCount))
}

func (p *Prometheus) OnLayoutComplete(_ context.Context, engine, direction string, d time.Duration, err error) {
	p.LayoutsTotal.WithLabelValues(engine, direction, status(err)).Inc()
	p.LayoutDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (p *Prometheus) OnParse(_ context.Context, _ int, d time.Duration, err error) {
	p.ParsesTotal.WithLabelValues(status(err)).Inc()
	p.ParseDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnTransition(_ context.Context, event, from, to string) {
	p.Transitions.WithLabelValues(event, from, to).Inc()
}

func (p *Prometheus) OnPublish(_ context.Context, state string, nodeCount int) {
	p.PublishTotal.WithLabelValues(state).Inc()
	p.FrameNodes.Set(float64(nodeCount))
}

func (p *Prometheus) OnOperation(_ context.Context, backend, op string, d time.Duration, err error) {
	p.StoreOpsTotal.WithLabelValues(backend, op, status(err)).Inc()
	p.StoreOpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (p *Prometheus) OnChange(_ context.Context, backend string) {
	p.StoreChangeTotal.WithLabelValues(backend).Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheHits.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheMisses.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}
