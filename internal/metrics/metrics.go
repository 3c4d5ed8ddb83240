package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the event lifecycle and its side effects
var (
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_events_created_total",
		Help: "Number of events created.",
	})
	EventsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_events_updated_total",
		Help: "Number of events updated.",
	})
	EventsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_events_deleted_total",
		Help: "Number of events deleted.",
	})
	ConflictsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_schedule_conflicts_rejected_total",
		Help: "Number of event writes rejected because of scheduling conflicts.",
	})
	PermissionDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_permission_denials_total",
		Help: "Number of operations denied by the permission engine.",
	})
	NotificationsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_notifications_published_total",
		Help: "Number of event notifications published to the queue.",
	})
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calendariko_notifications_failed_total",
		Help: "Number of event notifications that failed to publish.",
	})
)
