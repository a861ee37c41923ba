package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		providerCallDuration,
	)
}

var (
	// Count of webhook deliveries grouped by event and bounded result.
	// result: applied|duplicate|ignored|not_success|forbidden|bad_payload|not_found|unavailable|error
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook deliveries by event and result.",
		},
		[]string{"event", "result"},
	)

	// Latency of outbound provider calls.
	// op: initialize|verify, result: ok|error
	providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_provider_call_duration_seconds",
			Help:    "Duration of payment provider API calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op", "result"},
	)
)

func IncWebhook(event, result string) {
	if event == "" {
		event = "unknown"
	}
	webhookEventsTotal.WithLabelValues(norm(event), norm(result)).Inc()
}

func ObserveProviderCall(op string, ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	providerCallDuration.WithLabelValues(norm(op), result).Observe(seconds)
}
