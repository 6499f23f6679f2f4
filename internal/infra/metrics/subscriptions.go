package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"invoiceflow/internal/domain/model"
)

func init() {
	register(subscriptionsTotal)
}

var subscriptionsTotal = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "subscriptions_total",
		Help: "Current number of recurring subscriptions by status.",
	},
	[]string{"status"}, // 'Active', 'Paused', 'Cancelled'
)

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPaused,
		model.SubscriptionStatusCancelled,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
