package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		notificationsSentTotal,
		notificationFailuresTotal,
		notificationTicksTotal,
		notificationTickDuration,
	)
}

var (
	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Expiry notifications delivered, labeled by kind.",
		},
		[]string{"kind"}, // 'grouped', 'expired'
	)

	notificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Expiry notifications that failed to send.",
		},
	)

	notificationTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_ticks_total",
			Help: "Scheduler ticks, labeled by outcome.",
		},
		[]string{"result"}, // 'sent', 'empty', 'suppressed', 'skipped', 'error'
	)

	notificationTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_tick_duration_seconds",
			Help:    "Time spent in one notification pass.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func IncNotificationSent(kind string) {
	notificationsSentTotal.WithLabelValues(norm(kind)).Inc()
}

func IncNotificationFailure() {
	notificationFailuresTotal.Inc()
}

func IncNotificationTick(result string) {
	notificationTicksTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveNotificationTick(d time.Duration) {
	notificationTickDuration.Observe(d.Seconds())
}
