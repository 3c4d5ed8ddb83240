package notification

import (
	"context"
	"encoding/json"
	"time"

	"example.com/calendariko/internal/messaging"
	"example.com/calendariko/internal/metrics"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EventPayload is the structured message handed to the external mailer.
// Fields mirror what the event email template needs.
type EventPayload struct {
	To          string `json:"to"`
	ToName      string `json:"to_name"`
	EventID     string `json:"event_id"`
	EventTitle  string `json:"event_title"`
	EventType   string `json:"event_type"`
	EventStatus string `json:"event_status"`
	EventStart  string `json:"event_start"`
	EventEnd    string `json:"event_end"`
	Venue       string `json:"venue,omitempty"`
	Notes       string `json:"notes,omitempty"`
	BandName    string `json:"band_name"`
	IsUpdate    bool   `json:"is_update"`
}

// Notifier writes an outbox row and publishes it to the notification queue.
// Both steps are best-effort: a failure is logged and left for the worker to
// retry, and never surfaces to the caller.
type Notifier interface {
	Notify(ctx context.Context, payload EventPayload)
	RepublishPending(ctx context.Context, batch int) error
}

type notifier struct {
	repo repository.Repository
	bus  messaging.ServiceBusClient
	log  *logrus.Logger
}

// NewNotifier creates a notifier backed by the outbox table and the queue
func NewNotifier(repo repository.Repository, bus messaging.ServiceBusClient, log *logrus.Logger) Notifier {
	return &notifier{repo: repo, bus: bus, log: log}
}

// Notify stores the payload in the outbox and attempts an immediate publish
func (n *notifier) Notify(ctx context.Context, payload EventPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		n.log.WithError(err).Error("Failed to marshal notification payload")
		return
	}

	row := &models.Notification{
		Model:     models.Model{ID: uuid.NewString()},
		EventID:   payload.EventID,
		Recipient: payload.To,
		Payload:   string(raw),
		IsUpdate:  payload.IsUpdate,
	}

	if err := n.repo.CreateNotification(ctx, row); err != nil {
		n.log.WithError(err).WithField("event_id", payload.EventID).
			Error("Failed to store notification, skipping")
		metrics.NotificationsFailed.Inc()
		return
	}

	n.publish(ctx, row)
}

// publish sends one outbox row to the queue and stamps the outcome
func (n *notifier) publish(ctx context.Context, row *models.Notification) {
	if err := n.bus.SendMessage(ctx, json.RawMessage(row.Payload), row.EventID); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"notification_id": row.ID,
			"event_id":        row.EventID,
		}).Warn("Failed to publish notification, worker will retry")
		metrics.NotificationsFailed.Inc()
		if dbErr := n.repo.RecordNotificationError(ctx, row.ID, err.Error()); dbErr != nil {
			n.log.WithError(dbErr).Warn("Failed to record notification error")
		}
		return
	}

	metrics.NotificationsPublished.Inc()
	if err := n.repo.MarkNotificationPublished(ctx, row.ID); err != nil {
		n.log.WithError(err).WithField("notification_id", row.ID).
			Warn("Published notification but failed to mark it, it may be re-sent")
	}
}

// RepublishPending pushes unpublished outbox rows to the queue. Called by the
// background worker as the fallback delivery path.
func (n *notifier) RepublishPending(ctx context.Context, batch int) error {
	pending, err := n.repo.ListUnpublishedNotifications(ctx, batch)
	if err != nil {
		return errors.Wrap(err, "failed to list unpublished notifications")
	}

	if len(pending) == 0 {
		return nil
	}

	n.log.WithField("count", len(pending)).Info("Republishing pending notifications")
	for _, row := range pending {
		n.publish(ctx, row)
	}
	return nil
}

// FormatInstant renders an event timestamp the way the email template expects
func FormatInstant(t time.Time) string {
	return t.Format(time.RFC3339)
}
