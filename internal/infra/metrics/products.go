package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		productsAddedTotal,
		productsDeletedTotal,
		conversationErrorsTotal,
	)
}

var (
	productsAddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_added_total",
			Help: "Total number of products stored through the add flow.",
		},
	)

	productsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_deleted_total",
			Help: "Total number of delete actions applied.",
		},
	)

	conversationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_errors_total",
			Help: "User-visible input errors, labeled by kind.",
		},
		[]string{"kind"}, // 'format', 'invalid_date', 'malformed_token', 'unknown_command'
	)
)

func IncProductsAdded() {
	productsAddedTotal.Inc()
}

func IncProductsDeleted() {
	productsDeletedTotal.Inc()
}

func IncConversationError(kind string) {
	conversationErrorsTotal.WithLabelValues(norm(kind)).Inc()
}
