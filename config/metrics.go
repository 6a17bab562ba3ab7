package config

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPErrors           *prometheus.CounterVec
	WebsocketConnections *prometheus.GaugeVec
	ActivityMessages     *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns a singleton instance of Metrics
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "iris_http_requests_total",
					Help: "Count of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "iris_http_request_duration_seconds",
					Help:    "Duration of HTTP requests",
					Buckets: []float64{0.05, 0.1, 0.3, 0.5, 1, 3, 5, 10},
				},
				[]string{"method", "path"},
			),
			HTTPErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "iris_http_errors_total",
					Help: "Count of HTTP errors",
				},
				[]string{"method", "path", "status"},
			),
			WebsocketConnections: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "iris_websocket_connections",
					Help: "Current relay connections per namespace",
				},
				[]string{"namespace"},
			),
			ActivityMessages: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "iris_activity_messages_total",
					Help: "Count of activity records by stage",
				},
				[]string{"topic", "stage"},
			),
		}

		prometheus.MustRegister(
			metricsInstance.HTTPRequests,
			metricsInstance.HTTPDuration,
			metricsInstance.HTTPErrors,
			metricsInstance.WebsocketConnections,
			metricsInstance.ActivityMessages,
		)
	})
	return metricsInstance
}

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func IncWebsocketConnections(metrics *Metrics, namespace string) {
	metrics.WebsocketConnections.WithLabelValues(namespace).Inc()
}

func DecWebsocketConnections(metrics *Metrics, namespace string) {
	metrics.WebsocketConnections.WithLabelValues(namespace).Dec()
}

// RecordActivity counts an activity record at the given stage
// ("produced", "produce_failed", "consumed", "dropped").
func RecordActivity(metrics *Metrics, topic, stage string) {
	if metrics == nil {
		return
	}
	metrics.ActivityMessages.WithLabelValues(topic, stage).Inc()
}
