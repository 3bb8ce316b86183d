// Package metrics holds the Prometheus collectors of the bot process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpdatesTotal counts routed Telegram updates per handler and status.
	UpdatesTotal *prometheus.CounterVec
	// HandlerDuration observes how long each routed handler took.
	HandlerDuration *prometheus.HistogramVec
	// OutboundTotal counts dispatcher sends by action and outcome.
	OutboundTotal *prometheus.CounterVec

	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	SearchTotal        *prometheus.CounterVec

	// FlowEventsTotal counts conversation events by feature and result.
	FlowEventsTotal *prometheus.CounterVec

	WebhookEventsTotal *prometheus.CounterVec
	CheckoutsTotal     *prometheus.CounterVec
)

func init() {
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "telegram",
			Name:      "updates_total",
			Help:      "Routed Telegram updates",
		},
		[]string{"handler", "status"},
	)
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarbot",
			Subsystem: "telegram",
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"handler"},
	)
	OutboundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "telegram",
			Name:      "outbound_total",
			Help:      "Messages sent through the async dispatcher",
		},
		[]string{"action", "status"},
	)
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "research",
			Name:      "completions_total",
			Help:      "Completion attempts per provider",
		},
		[]string{"provider", "status"},
	)
	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarbot",
			Subsystem: "research",
			Name:      "completion_duration_seconds",
			Help:      "Completion latency per provider in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "research",
			Name:      "search_requests_total",
			Help:      "Search backend calls",
		},
		[]string{"backend", "status"},
	)
	FlowEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "flow",
			Name:      "events_total",
			Help:      "Conversation events by feature and result",
		},
		[]string{"feature", "result"},
	)
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "payment",
			Name:      "webhook_events_total",
			Help:      "Paystack webhook deliveries by event and HTTP status",
		},
		[]string{"event", "code"},
	)
	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarbot",
			Subsystem: "payment",
			Name:      "checkouts_total",
			Help:      "Checkout initializations",
		},
		[]string{"status"},
	)

	prometheus.MustRegister(
		UpdatesTotal,
		HandlerDuration,
		OutboundTotal,
		CompletionsTotal,
		CompletionDuration,
		SearchTotal,
		FlowEventsTotal,
		WebhookEventsTotal,
		CheckoutsTotal,
	)
}

// ObserveHandler matches router.SummaryObserver.
func ObserveHandler(handler, status string, took time.Duration) {
	if handler == "" {
		handler = "unknown"
	}
	UpdatesTotal.WithLabelValues(handler, status).Inc()
	HandlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveOutbound matches sender.Options.Observe.
func ObserveOutbound(action string, err error) {
	OutboundTotal.WithLabelValues(action, status(err)).Inc()
}

// RecordCompletion records one provider attempt.
func RecordCompletion(provider string, err error, took time.Duration) {
	CompletionsTotal.WithLabelValues(provider, status(err)).Inc()
	CompletionDuration.WithLabelValues(provider).Observe(took.Seconds())
}

func RecordSearch(backend string, err error) {
	SearchTotal.WithLabelValues(backend, status(err)).Inc()
}

func RecordFlowEvent(feature, result string) {
	FlowEventsTotal.WithLabelValues(feature, result).Inc()
}

func RecordWebhook(event string, code int) {
	if event == "" {
		event = "unknown"
	}
	WebhookEventsTotal.WithLabelValues(event, codeLabel(code)).Inc()
}

func RecordCheckout(err error) {
	CheckoutsTotal.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func codeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
