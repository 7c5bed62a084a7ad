package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder counts committed probe attempts. Dropped (stale) attempts are never recorded.
type Recorder struct {
	reg     *prometheus.Registry
	latency *prometheus.HistogramVec
	total   *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		reg: reg,
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livestatus",
			Name:      "probe_latency_ms",
			Help:      "Latency of successful live-status probes in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 8000},
		}, []string{"probe"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "probe_total",
			Help:      "Committed live-status probe attempts by outcome.",
		}, []string{"probe", "outcome"}),
	}
	reg.MustRegister(
		r.latency,
		r.total,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveOK(probe string, latencyMS int64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(probe).Observe(float64(latencyMS))
	r.total.WithLabelValues(probe, OutcomeOK).Inc()
}

func (r *Recorder) ObserveError(probe string) {
	if r == nil {
		return
	}
	r.total.WithLabelValues(probe, OutcomeError).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
