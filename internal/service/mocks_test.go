package service

import (
	"context"
	"time"

	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/notification"
	"example.com/calendariko/internal/repository"

	"github.com/stretchr/testify/mock"
)

// mockRepository is a testify mock of the repository. WithTransaction runs the
// callback against the same mock so expectations cover in-transaction calls
// too.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) LockBand(ctx context.Context, bandID string) error {
	args := m.Called(ctx, bandID)
	return args.Error(0)
}

func (m *mockRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) CreateBand(ctx context.Context, band *models.Band) error {
	args := m.Called(ctx, band)
	return args.Error(0)
}

func (m *mockRepository) UpdateBand(ctx context.Context, band *models.Band) error {
	args := m.Called(ctx, band)
	return args.Error(0)
}

func (m *mockRepository) DeleteBand(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) FindBandByID(ctx context.Context, id string) (*models.Band, error) {
	args := m.Called(ctx, id)
	if band, ok := args.Get(0).(*models.Band); ok {
		return band, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindBandBySlug(ctx context.Context, slug string) (*models.Band, error) {
	args := m.Called(ctx, slug)
	if band, ok := args.Get(0).(*models.Band); ok {
		return band, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListBands(ctx context.Context) ([]*models.Band, error) {
	args := m.Called(ctx)
	if bands, ok := args.Get(0).([]*models.Band); ok {
		return bands, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListBandsByIDs(ctx context.Context, ids []string) ([]*models.Band, error) {
	args := m.Called(ctx, ids)
	if bands, ok := args.Get(0).([]*models.Band); ok {
		return bands, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CountBandEvents(ctx context.Context, bandID string) (int64, error) {
	args := m.Called(ctx, bandID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) ReplaceUserBands(ctx context.Context, userID string, memberships []models.UserBand) error {
	args := m.Called(ctx, userID, memberships)
	return args.Error(0)
}

func (m *mockRepository) FindBandMembership(ctx context.Context, userID, bandID string) (*models.UserBand, error) {
	args := m.Called(ctx, userID, bandID)
	if membership, ok := args.Get(0).(*models.UserBand); ok {
		return membership, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ResetBandRoles(ctx context.Context, bandID string) error {
	args := m.Called(ctx, bandID)
	return args.Error(0)
}

func (m *mockRepository) SetBandRole(ctx context.Context, userID, bandID string, role models.Role) error {
	args := m.Called(ctx, userID, bandID, role)
	return args.Error(0)
}

func (m *mockRepository) FindBandManager(ctx context.Context, bandID string) (*models.UserBand, error) {
	args := m.Called(ctx, bandID)
	if membership, ok := args.Get(0).(*models.UserBand); ok {
		return membership, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockRepository) UpdateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockRepository) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if event, ok := args.Get(0).(*models.Event); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindEventsByBandAndWindow(ctx context.Context, bandID string, start, end time.Time) ([]models.Event, error) {
	args := m.Called(ctx, bandID, start, end)
	if events, ok := args.Get(0).([]models.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListEvents(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	args := m.Called(ctx, filter)
	if events, ok := args.Get(0).([]*models.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CreateVenue(ctx context.Context, venue *models.Venue) error {
	args := m.Called(ctx, venue)
	return args.Error(0)
}

func (m *mockRepository) FindVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	args := m.Called(ctx, id)
	if venue, ok := args.Get(0).(*models.Venue); ok {
		return venue, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) UpsertEventVenue(ctx context.Context, eventID, venueID string) error {
	args := m.Called(ctx, eventID, venueID)
	return args.Error(0)
}

func (m *mockRepository) DeleteEventVenue(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *mockRepository) ReplaceEventTags(ctx context.Context, eventID string, tagIDs []string) error {
	args := m.Called(ctx, eventID, tagIDs)
	return args.Error(0)
}

func (m *mockRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockRepository) MarkNotificationPublished(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) RecordNotificationError(ctx context.Context, id, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *mockRepository) ListUnpublishedNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, limit)
	if notifications, ok := args.Get(0).([]*models.Notification); ok {
		return notifications, args.Error(1)
	}
	return nil, args.Error(1)
}

// stubRecorder swallows audit writes and counts them
type stubRecorder struct {
	calls int
}

func (r *stubRecorder) Record(ctx context.Context, entity, entityID, action, actorID string, metadata map[string]interface{}) {
	r.calls++
}

// stubNotifier records the payloads it was asked to deliver
type stubNotifier struct {
	payloads []notification.EventPayload
}

func (n *stubNotifier) Notify(ctx context.Context, payload notification.EventPayload) {
	n.payloads = append(n.payloads, payload)
}

func (n *stubNotifier) RepublishPending(ctx context.Context, batch int) error {
	return nil
}
