// Package metrics exposes Prometheus counters for the dispatch pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	// NotificationsScheduled counts "scheduled" log records, one per recipient per send.
	NotificationsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_notifications_scheduled_total",
			Help: "Total number of notifications scheduled, one per recipient.",
		},
	)

	// MessagesSent counts completion events observed, by transport.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_messages_sent_total",
			Help: "Total number of messages confirmed by a transport, by transport.",
		},
		[]string{"transport"},
	)

	// TransportFailures counts individual provider failures, including ones
	// later absorbed by failover.
	TransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_transport_failures_total",
			Help: "Total number of provider send failures, by transport.",
		},
		[]string{"transport"},
	)

	// DeliveryErrors counts messages that could not be delivered by any provider, by channel.
	DeliveryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_delivery_errors_total",
			Help: "Total number of messages no provider could deliver, by channel.",
		},
		[]string{"channel"},
	)

	// SendDuration measures provider send calls.
	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_transport_send_duration_seconds",
			Help:    "Histogram of provider send duration in seconds, by transport and success status.",
			Buckets: durationBuckets,
		},
		[]string{"transport", "success"},
	)
)

// Handler returns the HTTP handler for the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSend records the duration of one provider send call.
func ObserveSend(transport string, success bool, start time.Time) {
	successStr := "false"
	if success {
		successStr = "true"
	}
	SendDuration.WithLabelValues(transport, successStr).Observe(time.Since(start).Seconds())
}
