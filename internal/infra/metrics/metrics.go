package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Accepted send requests by aggregate outcome (delivered/failed/rate_limited).",
		},
		[]string{"outcome"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Per-destination delivery attempts by platform and terminal status.",
		},
		[]string{"platform", "status"},
	)

	deliveryLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_latency_ms",
			Help:    "Platform adapter call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"platform", "success"},
	)

	quotaBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_blocks_total",
			Help: "Send requests rejected by the daily quota gate.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			messagesTotal, deliveriesTotal, deliveryLatencyMs, quotaBlocksTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncMessage(outcome string) {
	messagesTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveDelivery(platform string, success bool, latencyMs int64) {
	status := "failed"
	if success {
		status = "success"
	}
	deliveriesTotal.WithLabelValues(norm(platform), status).Inc()
	deliveryLatencyMs.WithLabelValues(norm(platform), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncQuotaBlock() {
	quotaBlocksTotal.Inc()
}
