// Package metrics exposes Prometheus instrumentation for the processing
// pipeline. All helpers are safe on a nil receiver so components can run
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lotvision"

// Metrics bundles the service's collectors on a private registry, so multiple
// instances never trip duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	batchesAccepted   prometheus.Counter
	lotsProcessed     *prometheus.CounterVec
	webhooksSent      *prometheus.CounterVec
	imagesValidated   *prometheus.CounterVec
	generationRetries prometheus.Counter
	lotsInFlight      prometheus.Gauge
	processingTime    prometheus.Histogram
	deliveryAttempts  prometheus.Histogram
}

// New creates the collector set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		batchesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_accepted_total",
			Help:      "Total batches accepted for asynchronous processing.",
		}),
		lotsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_processed_total",
			Help:      "Total lots that reached a processing result.",
		}, []string{"status"}),
		webhooksSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_sent_total",
			Help:      "Total callback deliveries by terminal result.",
		}, []string{"result"}),
		imagesValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_validated_total",
			Help:      "Total image URL checks by result.",
		}, []string{"result"}),
		generationRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_retries_total",
			Help:      "Total generation calls retried after a transient failure.",
		}),
		lotsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lots_in_flight",
			Help:      "Lots currently being processed.",
		}),
		processingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lot_processing_seconds",
			Help:      "Time from lot pickup to processing result.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		deliveryAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_attempts",
			Help:      "Webhook attempts needed per terminal delivery outcome.",
			Buckets:   prometheus.LinearBuckets(1, 1, 6),
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackBatchAccepted counts an accepted batch.
func (m *Metrics) TrackBatchAccepted() {
	if m == nil {
		return
	}
	m.batchesAccepted.Inc()
}

// TrackLotProcessed counts a processed lot by outcome status.
func (m *Metrics) TrackLotProcessed(status string) {
	if m == nil {
		return
	}
	m.lotsProcessed.WithLabelValues(status).Inc()
}

// TrackWebhook counts a terminal delivery outcome ("success" or "failure").
func (m *Metrics) TrackWebhook(result string) {
	if m == nil {
		return
	}
	m.webhooksSent.WithLabelValues(result).Inc()
}

// TrackImageValidation counts image checks by result.
func (m *Metrics) TrackImageValidation(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "unreachable"
	}
	m.imagesValidated.WithLabelValues(result).Inc()
}

// TrackGenerationRetry counts a retried generation call.
func (m *Metrics) TrackGenerationRetry() {
	if m == nil {
		return
	}
	m.generationRetries.Inc()
}

// LotStarted marks a lot entering processing.
func (m *Metrics) LotStarted() {
	if m == nil {
		return
	}
	m.lotsInFlight.Inc()
}

// LotFinished marks a lot leaving processing.
func (m *Metrics) LotFinished() {
	if m == nil {
		return
	}
	m.lotsInFlight.Dec()
}

// ObserveProcessingTime records how long a lot took to process.
func (m *Metrics) ObserveProcessingTime(d time.Duration) {
	if m == nil {
		return
	}
	m.processingTime.Observe(d.Seconds())
}

// ObserveDeliveryAttempts records the attempts a delivery consumed.
func (m *Metrics) ObserveDeliveryAttempts(n int) {
	if m == nil {
		return
	}
	m.deliveryAttempts.Observe(float64(n))
}
