// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UserDirectoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_directory_operations_total",
			Help: "Total number of user directory operations",
		},
		[]string{"operation", "status"},
	)

	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_directory_lookups_total",
			Help: "Total number of entity directory lookups",
		},
		[]string{"entity"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications dispatched per channel",
		},
		[]string{"channel", "status"},
	)

	NotificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_processing_duration_seconds",
			Help: "Duration of return-notification processing in seconds",
		},
		[]string{"outcome"},
	)
)
