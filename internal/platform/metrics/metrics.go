// Package metrics exposes Prometheus counters for the document generation
// pipeline and the HTTP handler serving them.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DispatchMetrics counts document generation jobs by outcome, labelled by
// form kind.
type DispatchMetrics struct {
	Scheduled *prometheus.CounterVec
	Succeeded *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Skipped   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewDispatchMetrics builds the counter set on a fresh registry so tests can
// create instances without duplicate-registration panics.
func NewDispatchMetrics() *DispatchMetrics {
	reg := prometheus.NewRegistry()
	m := &DispatchMetrics{
		Scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carehq_pdf_jobs_scheduled_total",
			Help: "Document generation jobs scheduled after non-draft submissions.",
		}, []string{"form_kind"}),
		Succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carehq_pdf_jobs_succeeded_total",
			Help: "Document generation jobs that stored a PDF.",
		}, []string{"form_kind"}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carehq_pdf_jobs_failed_total",
			Help: "Document generation jobs that failed (renderer error or storage error).",
		}, []string{"form_kind"}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carehq_pdf_jobs_skipped_total",
			Help: "Document generation jobs skipped because no renderer is configured.",
		}, []string{"form_kind"}),
		registry: reg,
	}
	reg.MustRegister(m.Scheduled, m.Succeeded, m.Failed, m.Skipped)
	return m
}

// Handler returns an echo handler serving the Prometheus text exposition.
func (m *DispatchMetrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
