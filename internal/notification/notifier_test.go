package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// outboxRepo fakes just the notification side of the repository
type outboxRepo struct {
	repository.Repository

	rows      []*models.Notification
	published []string
	failures  map[string]string
	createErr error
}

func (r *outboxRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.rows = append(r.rows, n)
	return nil
}

func (r *outboxRepo) MarkNotificationPublished(ctx context.Context, id string) error {
	r.published = append(r.published, id)
	return nil
}

func (r *outboxRepo) RecordNotificationError(ctx context.Context, id, errMsg string) error {
	if r.failures == nil {
		r.failures = map[string]string{}
	}
	r.failures[id] = errMsg
	return nil
}

func (r *outboxRepo) ListUnpublishedNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	var pending []*models.Notification
	for _, row := range r.rows {
		if !row.Published {
			pending = append(pending, row)
		}
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// stubBus fails a configurable number of sends before succeeding
type stubBus struct {
	failures int
	sent     []string
}

func (b *stubBus) SendMessage(ctx context.Context, body interface{}, sessionID string) error {
	if b.failures > 0 {
		b.failures--
		return errors.New("queue unavailable")
	}
	raw, _ := json.Marshal(body)
	b.sent = append(b.sent, string(raw))
	return nil
}

func (b *stubBus) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func payload() EventPayload {
	return EventPayload{
		To:         "manager1@example.com",
		ToName:     "Marco Rossi",
		EventID:    "evt-1",
		EventTitle: "Live @ Circolo Magnolia",
		BandName:   "The Rockers",
	}
}

func TestNotifyStoresAndPublishes(t *testing.T) {
	repo := &outboxRepo{}
	bus := &stubBus{}
	n := NewNotifier(repo, bus, quietLogger())

	n.Notify(context.Background(), payload())

	require.Len(t, repo.rows, 1)
	require.Equal(t, "manager1@example.com", repo.rows[0].Recipient)
	require.Len(t, bus.sent, 1)
	require.Equal(t, []string{repo.rows[0].ID}, repo.published)
}

func TestNotifySurvivesPublishFailure(t *testing.T) {
	repo := &outboxRepo{}
	bus := &stubBus{failures: 1}
	n := NewNotifier(repo, bus, quietLogger())

	// Delivery fails, but the outbox row stays for the worker
	n.Notify(context.Background(), payload())

	require.Len(t, repo.rows, 1)
	require.Empty(t, repo.published)
	require.Contains(t, repo.failures[repo.rows[0].ID], "queue unavailable")
}

func TestNotifySurvivesStorageFailure(t *testing.T) {
	repo := &outboxRepo{createErr: errors.New("db down")}
	bus := &stubBus{}
	n := NewNotifier(repo, bus, quietLogger())

	// Nothing to assert beyond the absence of a panic: the notifier
	// swallows the failure by contract
	n.Notify(context.Background(), payload())
	require.Empty(t, bus.sent)
}

func TestRepublishPendingDrainsOutbox(t *testing.T) {
	repo := &outboxRepo{}
	bus := &stubBus{failures: 1}
	n := NewNotifier(repo, bus, quietLogger())

	// First attempt fails and leaves the row unpublished
	n.Notify(context.Background(), payload())
	require.Empty(t, repo.published)

	// The worker pass succeeds
	require.NoError(t, n.RepublishPending(context.Background(), 10))
	require.Len(t, repo.published, 1)
	require.Len(t, bus.sent, 1)
}
