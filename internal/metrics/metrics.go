package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cleanbook"

// Notification outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

var (
	once sync.Once

	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "RPC calls by procedure, transport and result code.",
		},
		[]string{"procedure", "transport", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"procedure", "transport"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owner_notifications_total",
			Help:      "Owner notifications by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings persisted through bookings.create.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(rpcCalls, rpcDuration, notifications, bookingsCreated)
	})
}

// ObserveRPC records one finished call. code is "OK" on success.
func ObserveRPC(procedure, transport, code string, elapsed time.Duration) {
	rpcCalls.WithLabelValues(procedure, transport, code).Inc()
	rpcDuration.WithLabelValues(procedure, transport).Observe(elapsed.Seconds())
}

func IncNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}

func IncBookingsCreated() {
	bookingsCreated.Inc()
}
