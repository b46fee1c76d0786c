package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notifykit"

// Fetch sources reported by the inbox store.
const (
	SourceNetwork   = "network"
	SourceCache     = "cache"
	SourceCoalesced = "coalesced"
)

// Connection attempt results reported by the realtime channel.
const (
	ConnectSuccess = "success"
	ConnectFailure = "failure"
)

var (
	StoreFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetches_total",
			Help:      "Inbox store fetches by resource and where the result came from",
		},
		[]string{"resource", "source"}, // resource: list, unread_count
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "REST notification API request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route", "status"},
	)

	RealtimeConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_connect_attempts_total",
			Help:      "Realtime channel connection attempts by transport and result",
		},
		[]string{"transport", "result"},
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Push events received by the realtime channel",
		},
		[]string{"event"},
	)

	ToastEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toast_evictions_total",
			Help:      "Toasts evicted because the queue was full",
		},
	)

	BroadcastDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_drops_total",
			Help:      "Messages dropped for slow subscribers",
		},
		[]string{"component"},
	)

	ServerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "server_request_duration_seconds",
			Help:      "Reference backend HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	ServerSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_socket_connections",
			Help:      "Open push socket connections on the reference backend",
		},
	)
)

func RecordStoreFetch(resource, source string) {
	StoreFetches.WithLabelValues(resource, source).Inc()
}

func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, statusLabel(status)).Observe(d.Seconds())
}

func RecordConnectAttempt(transport, result string) {
	RealtimeConnectAttempts.WithLabelValues(transport, result).Inc()
}

func RecordRealtimeEvent(event string) {
	RealtimeEvents.WithLabelValues(event).Inc()
}

func RecordToastEviction() {
	ToastEvictions.Inc()
}

func RecordBroadcastDrop(component string) {
	BroadcastDrops.WithLabelValues(component).Inc()
}

func RecordServerRequest(method, route string, status int, d time.Duration) {
	ServerRequestDuration.WithLabelValues(method, route, statusLabel(status)).Observe(d.Seconds())
}

// statusLabel maps 0 (no response) to "error".
func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
