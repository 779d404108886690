package metrics

import "github.com/prometheus/client_golang/prometheus"

// Bot-side Prometheus metrics: retrieval tiers, book delivery, notifications, updates.
var (
	RetrievalTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_tier_total",
			Help:      "Retrieval tier attempts by outcome",
		},
		[]string{"tier", "outcome"}, // outcome: "success" / "error"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of a full retrieval including fallbacks",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"tier"}, // tier that produced the result, "none" on total failure
	)

	BookDeliveryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_delivery_total",
			Help:      "Book delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Scheduled notifications by status",
		},
		[]string{"status"}, // "sent" / "failed"
	)

	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_updates_total",
			Help:      "Telegram updates handled by kind",
		},
		[]string{"kind"}, // "command" / "message" / "callback"
	)
)

var botMetricsRegistered bool

// RegisterBotMetrics registers the bot metrics. Must be called once from main.
func RegisterBotMetrics() {
	if botMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalTierTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(BookDeliveryTotal)
	prometheus.MustRegister(NotificationsSentTotal)
	prometheus.MustRegister(UpdatesTotal)
	botMetricsRegistered = true
}
