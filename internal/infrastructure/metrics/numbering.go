// Package metrics exposes Prometheus collectors for the numbering service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brewops/internal/domain/numbering"
)

// Compile-time check that NumberingMetrics implements numbering.Recorder.
var _ numbering.Recorder = (*NumberingMetrics)(nil)

// NumberingMetrics records numbering events.
type NumberingMetrics struct {
	issued      *prometheus.CounterVec
	resets      *prometheus.CounterVec
	provisioned *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewNumberingMetrics registers the numbering collectors on reg.
func NewNumberingMetrics(reg prometheus.Registerer) *NumberingMetrics {
	factory := promauto.With(reg)

	return &NumberingMetrics{
		issued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewops",
			Subsystem: "numbering",
			Name:      "numbers_issued_total",
			Help:      "Total number of identifiers issued",
		}, []string{"entity"}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewops",
			Subsystem: "numbering",
			Name:      "yearly_resets_total",
			Help:      "Total number of counters restarted at 1 for a new year",
		}, []string{"entity"}),
		provisioned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewops",
			Subsystem: "numbering",
			Name:      "counters_provisioned_total",
			Help:      "Total number of counter rows created",
		}, []string{"entity", "sub_scoped"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewops",
			Subsystem: "numbering",
			Name:      "provisioning_skipped_total",
			Help:      "Total number of provisioning attempts that did not create a row",
		}, []string{"entity", "reason"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brewops",
			Subsystem: "numbering",
			Name:      "next_number_duration_seconds",
			Help:      "Latency of issuing one identifier, including lock waits",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
	}
}

// NumberIssued implements numbering.Recorder.
func (m *NumberingMetrics) NumberIssued(entity string, reset bool, elapsed time.Duration) {
	m.issued.WithLabelValues(entity).Inc()
	m.latency.WithLabelValues(entity).Observe(elapsed.Seconds())
	if reset {
		m.resets.WithLabelValues(entity).Inc()
	}
}

// CounterProvisioned implements numbering.Recorder.
func (m *NumberingMetrics) CounterProvisioned(entity string, subScoped bool) {
	m.provisioned.WithLabelValues(entity, strconv.FormatBool(subScoped)).Inc()
}

// ProvisioningSkipped implements numbering.Recorder.
func (m *NumberingMetrics) ProvisioningSkipped(entity, reason string) {
	m.skipped.WithLabelValues(entity, reason).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
