package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	analyzeTotal    *prometheus.CounterVec
	analyzeDuration *prometheus.HistogramVec
	analyzeInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec

	chunksRouted         *prometheus.CounterVec
	sectionsExtracted    *prometheus.HistogramVec
	collaboratorFailures *prometheus.CounterVec
	chunksIndexed        *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	analyzeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenk",
			Subsystem: "worker",
			Name:      "filing_analyze_total",
			Help:      "Total analyzed filings by status.",
		},
		[]string{"service", "status"},
	)
	analyzeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tenk",
			Subsystem: "worker",
			Name:      "filing_analyze_duration_seconds",
			Help:      "Filing analysis duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	analyzeInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tenk",
			Subsystem: "worker",
			Name:      "filing_analyze_in_flight",
			Help:      "Number of in-flight filing analyses.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tenk",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between request submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	chunksRouted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenk",
			Subsystem: "pipeline",
			Name:      "chunks_routed_total",
			Help:      "Total chunks routed by lane.",
		},
		[]string{"service", "lane"},
	)
	sectionsExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tenk",
			Subsystem: "pipeline",
			Name:      "sections_extracted",
			Help:      "Distribution of recognized sections per filing.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
		},
		[]string{"service"},
	)
	collaboratorFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenk",
			Subsystem: "pipeline",
			Name:      "collaborator_failures_total",
			Help:      "Total degraded collaborator calls by collaborator.",
		},
		[]string{"service", "collaborator"},
	)
	chunksIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenk",
			Subsystem: "pipeline",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks submitted to the similarity index by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		analyzeTotal,
		analyzeDuration,
		analyzeInFlight,
		queueLag,
		chunksRouted,
		sectionsExtracted,
		collaboratorFailures,
		chunksIndexed,
	)

	return &WorkerMetrics{
		registry:             registry,
		analyzeTotal:         analyzeTotal,
		analyzeDuration:      analyzeDuration,
		analyzeInFlight:      analyzeInFlight,
		queueLag:             queueLag,
		chunksRouted:         chunksRouted,
		sectionsExtracted:    sectionsExtracted,
		collaboratorFailures: collaboratorFailures,
		chunksIndexed:        chunksIndexed,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartAnalysis() {
	m.analyzeInFlight.Inc()
}

func (m *WorkerMetrics) FinishAnalysis(service string, duration time.Duration, err error) {
	m.analyzeInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.analyzeTotal.WithLabelValues(service, status).Inc()
	m.analyzeDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordRoutedChunks(service, lane string, count int) {
	if count <= 0 {
		return
	}
	m.chunksRouted.WithLabelValues(service, lane).Add(float64(count))
}

func (m *WorkerMetrics) ObserveSections(service string, count int) {
	m.sectionsExtracted.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) RecordCollaboratorFailure(service, collaborator string) {
	m.collaboratorFailures.WithLabelValues(service, collaborator).Inc()
}

func (m *WorkerMetrics) RecordIndexedChunks(service string, indexed, skipped int) {
	if indexed > 0 {
		m.chunksIndexed.WithLabelValues(service, "indexed").Add(float64(indexed))
	}
	if skipped > 0 {
		m.chunksIndexed.WithLabelValues(service, "skipped").Add(float64(skipped))
	}
}

// ServiceMetrics is a WorkerMetrics view with the service label bound, so
// pipeline code can record without carrying the label around.
type ServiceMetrics struct {
	w       *WorkerMetrics
	service string
}

func (m *WorkerMetrics) ForService(service string) *ServiceMetrics {
	return &ServiceMetrics{w: m, service: service}
}

func (s *ServiceMetrics) StartAnalysis() {
	s.w.StartAnalysis()
}

func (s *ServiceMetrics) FinishAnalysis(duration time.Duration, err error) {
	s.w.FinishAnalysis(s.service, duration, err)
}

func (s *ServiceMetrics) ObserveQueueLag(lag time.Duration) {
	s.w.ObserveQueueLag(s.service, lag)
}

func (s *ServiceMetrics) RecordRoutedChunks(lane string, count int) {
	s.w.RecordRoutedChunks(s.service, lane, count)
}

func (s *ServiceMetrics) ObserveSections(count int) {
	s.w.ObserveSections(s.service, count)
}

func (s *ServiceMetrics) RecordCollaboratorFailure(collaborator string) {
	s.w.RecordCollaboratorFailure(s.service, collaborator)
}

func (s *ServiceMetrics) RecordIndexedChunks(indexed, skipped int) {
	s.w.RecordIndexedChunks(s.service, indexed, skipped)
}
