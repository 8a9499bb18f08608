package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(productStorePool) }

// productStorePool mirrors pgxpool.Stat for the Postgres product store.
var productStorePool = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_pool_stats",
		Help: "Connections held by the Postgres product store pool, by state (total, idle, in_use).",
	},
	[]string{"state"},
)

// SetDBPoolStats is fed by postgres.ReportPoolStats on every interval.
func SetDBPoolStats(total, idle, inUse int32) {
	productStorePool.WithLabelValues("total").Set(float64(total))
	productStorePool.WithLabelValues("idle").Set(float64(idle))
	productStorePool.WithLabelValues("in_use").Set(float64(inUse))
}
