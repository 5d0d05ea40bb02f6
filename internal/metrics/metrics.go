// Package metrics exposes agent run statistics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soyeahso/prodbot/internal/hooks"
)

// Collector turns hook events into Prometheus series.
type Collector struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	nodeVisits    *prometheus.CounterVec
	runDuration   prometheus.Histogram
	graderVerdict *prometheus.CounterVec
	toolsLoaded   prometheus.Gauge
}

// NewCollector creates a collector on its own registry, with the Go and
// process collectors included.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prodbot_runs_total",
			Help: "Agent runs by outcome.",
		}, []string{"outcome"}),
		nodeVisits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prodbot_node_visits_total",
			Help: "Completed node visits by node.",
		}, []string{"node"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "prodbot_run_duration_seconds",
			Help:    "Agent run duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		graderVerdict: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prodbot_grader_verdicts_total",
			Help: "Grader routing decisions by route.",
		}, []string{"route"}),
		toolsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "prodbot_tools_loaded",
			Help: "Tools available after the last initialization.",
		}),
	}
}

// ID names the collector as an event sink.
func (c *Collector) ID() string { return "metrics" }

// Attach subscribes the collector to m.
func (c *Collector) Attach(m *hooks.Manager) {
	m.On(hooks.EventRunComplete, "metrics", c.observeRun("success"))
	m.On(hooks.EventRunError, "metrics", c.observeRun("error"))
	m.On(hooks.EventNodeExit, "metrics", func(_ context.Context, p hooks.Payload) error {
		c.nodeVisits.WithLabelValues(p.String("node")).Inc()
		return nil
	})
	m.On(hooks.EventGraderVerdict, "metrics", func(_ context.Context, p hooks.Payload) error {
		c.graderVerdict.WithLabelValues(p.String("route")).Inc()
		return nil
	})
	m.On(hooks.EventToolsLoaded, "metrics", func(_ context.Context, p hooks.Payload) error {
		names, _ := p.Data["tools"].([]string)
		c.toolsLoaded.Set(float64(len(names)))
		return nil
	})
}

func (c *Collector) observeRun(outcome string) hooks.Handler {
	return func(_ context.Context, p hooks.Payload) error {
		c.runs.WithLabelValues(outcome).Inc()
		if ms, ok := p.Data["durationMs"].(int64); ok {
			c.runDuration.Observe((time.Duration(ms) * time.Millisecond).Seconds())
		}
		return nil
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
