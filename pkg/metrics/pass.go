package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PassMetrics records execution metadata for the scheduled
// reconciliation passes.
type PassMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	processed *prometheus.CounterVec
}

// NewPassMetrics registers the pass metrics on the provided registerer.
func NewPassMetrics(reg prometheus.Registerer) *PassMetrics {
	if reg == nil {
		return &PassMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recon_pass_duration_seconds",
		Help:    "Duration of reconciliation passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_pass_success",
		Help: "Successful reconciliation pass executions.",
	}, []string{"pass"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_pass_failure",
		Help: "Failed reconciliation pass executions.",
	}, []string{"pass"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_pass_candidates_processed",
		Help: "Candidates handled per reconciliation pass.",
	}, []string{"pass", "outcome"})
	reg.MustRegister(duration, success, failure, processed)
	return &PassMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		processed: processed,
	}
}

// ObserveDuration records the duration for the named pass.
func (p *PassMetrics) ObserveDuration(pass string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(pass)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named pass.
func (p *PassMetrics) IncSuccess(pass string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(pass)).Inc()
}

// IncFailure increments the failure counter for the named pass.
func (p *PassMetrics) IncFailure(pass string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(pass)).Inc()
}

// AddProcessed counts candidates the pass handled with the given
// outcome (advanced, skipped, failed).
func (p *PassMetrics) AddProcessed(pass, outcome string, count int) {
	if p == nil || p.processed == nil || count <= 0 {
		return
	}
	p.processed.WithLabelValues(normalizeLabel(pass), normalizeLabel(outcome)).Add(float64(count))
}

func normalizeLabel(pass string) string {
	if pass == "" {
		return "unknown"
	}
	return pass
}
