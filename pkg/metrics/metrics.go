// Package metrics, Prometheus sayaçlarını tek yerde toplar.
//
// Tüm metrikler promauto ile varsayılan registry'ye kaydolur ve
// GET /metrics üzerinden promhttp ile dışarı açılır.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrispine_api_requests_total",
			Help: "Total number of REST API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrispine_api_request_duration_seconds",
			Help:    "REST API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Chat
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrispine_messages_sent_total",
			Help: "Total number of chat messages persisted",
		},
	)

	MessageMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrispine_message_mutations_total",
			Help: "Total number of message mutations by operation",
		},
		[]string{"op"}, // star, react, unreact, delete, delete_many, delete_for_me, clear
	)

	// WebSocket
	BroadcastEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrispine_ws_broadcast_events_total",
			Help: "Total number of room broadcasts by op",
		},
		[]string{"op"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrispine_ws_connections",
			Help: "Current number of open WebSocket connections",
		},
	)

	// Uploads
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrispine_uploads_total",
			Help: "Total number of uploads by backend and result",
		},
		[]string{"backend", "result"},
	)
)

// RecordAPIRequest, tek bir REST isteğini kaydeder.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMutation, başarılı bir mesaj mutasyonunu sayar.
func RecordMutation(op string) {
	MessageMutations.WithLabelValues(op).Inc()
}

// RecordBroadcast, oda yayınını op etiketiyle sayar.
func RecordBroadcast(op string) {
	BroadcastEvents.WithLabelValues(op).Inc()
}

// RecordUpload, yükleme sonucunu kaydeder.
func RecordUpload(backend string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	UploadsTotal.WithLabelValues(backend, result).Inc()
}
