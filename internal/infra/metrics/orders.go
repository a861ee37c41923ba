package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(ordersTotal) }

// result: created|existing|active_conflict|unknown_plan|error
var ordersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orders_create_total",
		Help: "Order creation attempts by outcome.",
	},
	[]string{"result"},
)

func IncOrder(result string) {
	ordersTotal.WithLabelValues(norm(result)).Inc()
}
