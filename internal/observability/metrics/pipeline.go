package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StageLookup   = "lookup"
	StageGenerate = "generate"
	StageDeliver  = "deliver"
	StageTotal    = "total"
)

// Pipeline holds the Prometheus collectors scraped from /metrics.
type Pipeline struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// NewPipeline builds a private registry with the process collectors and the
// pipeline latency histogram.
func NewPipeline(cfg Config) *Pipeline {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "orderpulse"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "orderpulse_pipeline_stage_duration_seconds",
			Help:        "Duration of each event pipeline stage.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"stage", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "orderpulse_http_requests_total",
			Help:        "HTTP requests by route and status class.",
			ConstLabels: constLabels,
		}, []string{"route", "status_class"}),
	}
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.stageDuration,
		p.httpRequests,
	)
	return p
}

// ObserveStage records how long a stage took.
func (p *Pipeline) ObserveStage(stage string, err error, elapsed time.Duration) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.stageDuration.WithLabelValues(stage, result).Observe(elapsed.Seconds())
}

// ObserveRequest counts one served request.
func (p *Pipeline) ObserveRequest(route string, status int) {
	if p == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	p.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry is exposed for tests.
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
