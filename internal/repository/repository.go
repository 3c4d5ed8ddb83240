package repository

import (
	"context"
	"time"

	"example.com/calendariko/internal/database"
	"example.com/calendariko/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows event listings
type EventFilter struct {
	BandIDs  []string
	Types    []models.EventType
	Statuses []models.EventStatus
	From     *time.Time
	To       *time.Time
	Search   string
}

// Repository provides data access methods
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error
	// LockBand serializes conflicting writers on the same band for the
	// duration of the surrounding transaction
	LockBand(ctx context.Context, bandID string) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Band operations
	CreateBand(ctx context.Context, band *models.Band) error
	UpdateBand(ctx context.Context, band *models.Band) error
	DeleteBand(ctx context.Context, id string) error
	FindBandByID(ctx context.Context, id string) (*models.Band, error)
	FindBandBySlug(ctx context.Context, slug string) (*models.Band, error)
	ListBands(ctx context.Context) ([]*models.Band, error)
	ListBandsByIDs(ctx context.Context, ids []string) ([]*models.Band, error)
	CountBandEvents(ctx context.Context, bandID string) (int64, error)

	// Membership operations
	ReplaceUserBands(ctx context.Context, userID string, memberships []models.UserBand) error
	FindBandMembership(ctx context.Context, userID, bandID string) (*models.UserBand, error)
	ResetBandRoles(ctx context.Context, bandID string) error
	SetBandRole(ctx context.Context, userID, bandID string, role models.Role) error
	FindBandManager(ctx context.Context, bandID string) (*models.UserBand, error)

	// Event operations
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	FindEventByID(ctx context.Context, id string) (*models.Event, error)
	FindEventsByBandAndWindow(ctx context.Context, bandID string, start, end time.Time) ([]models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// Venue operations
	CreateVenue(ctx context.Context, venue *models.Venue) error
	FindVenueByID(ctx context.Context, id string) (*models.Venue, error)
	UpsertEventVenue(ctx context.Context, eventID, venueID string) error
	DeleteEventVenue(ctx context.Context, eventID string) error

	// Tag operations
	ReplaceEventTags(ctx context.Context, eventID string, tagIDs []string) error

	// Audit sink, append only
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error

	// Notification outbox
	CreateNotification(ctx context.Context, notification *models.Notification) error
	MarkNotificationPublished(ctx context.Context, id string) error
	RecordNotificationError(ctx context.Context, id, errMsg string) error
	ListUnpublishedNotifications(ctx context.Context, limit int) ([]*models.Notification, error)
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// dbWrapper adapts a transaction handle to the database.DB interface
type dbWrapper struct {
	db *gorm.DB
}

func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

func (w *dbWrapper) Close() error {
	return nil
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}

// WithTransaction executes the given function within a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{
			db: &dbWrapper{db: tx},
		}
		return fn(ctx, txRepo)
	})
}

// LockBand takes a row lock on the band so the conflict-check-then-write
// sequence cannot interleave with another writer on the same band. Only
// meaningful inside WithTransaction.
func (r *repo) LockBand(ctx context.Context, bandID string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	var band models.Band
	return gormDB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&band, "id = ?", bandID).Error
}

// User operations implementation

func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(user).Error
}

func (r *repo) UpdateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(user).Error
}

func (r *repo) DeleteUser(ctx context.Context, id string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("user_id = ?", id).Delete(&models.UserBand{}).Error; err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

func (r *repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := gormDB.WithContext(ctx).Preload("Bands.Band").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := gormDB.WithContext(ctx).Preload("Bands.Band").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) ListUsers(ctx context.Context) ([]*models.User, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var users []*models.User
	if err := gormDB.WithContext(ctx).Preload("Bands.Band").Order("name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) CountUsers(ctx context.Context) (int64, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := gormDB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Band operations implementation

func (r *repo) CreateBand(ctx context.Context, band *models.Band) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(band).Error
}

func (r *repo) UpdateBand(ctx context.Context, band *models.Band) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(band).Error
}

func (r *repo) DeleteBand(ctx context.Context, id string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("band_id = ?", id).Delete(&models.UserBand{}).Error; err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Delete(&models.Band{}, "id = ?", id).Error
}

func (r *repo) FindBandByID(ctx context.Context, id string) (*models.Band, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var band models.Band
	if err := gormDB.WithContext(ctx).Preload("Users.User").First(&band, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &band, nil
}

func (r *repo) FindBandBySlug(ctx context.Context, slug string) (*models.Band, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var band models.Band
	if err := gormDB.WithContext(ctx).First(&band, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &band, nil
}

func (r *repo) ListBands(ctx context.Context) ([]*models.Band, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var bands []*models.Band
	if err := gormDB.WithContext(ctx).Preload("Users.User").Order("name").Find(&bands).Error; err != nil {
		return nil, err
	}
	return bands, nil
}

func (r *repo) ListBandsByIDs(ctx context.Context, ids []string) ([]*models.Band, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var bands []*models.Band
	if err := gormDB.WithContext(ctx).Preload("Users.User").Where("id IN ?", ids).Order("name").Find(&bands).Error; err != nil {
		return nil, err
	}
	return bands, nil
}

func (r *repo) CountBandEvents(ctx context.Context, bandID string) (int64, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := gormDB.WithContext(ctx).Model(&models.Event{}).Where("band_id = ?", bandID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Membership operations implementation

func (r *repo) ReplaceUserBands(ctx context.Context, userID string, memberships []models.UserBand) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserBand{}).Error; err != nil {
		return err
	}
	if len(memberships) == 0 {
		return nil
	}
	return gormDB.WithContext(ctx).Create(&memberships).Error
}

func (r *repo) FindBandMembership(ctx context.Context, userID, bandID string) (*models.UserBand, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var membership models.UserBand
	if err := gormDB.WithContext(ctx).
		First(&membership, "user_id = ? AND band_id = ?", userID, bandID).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repo) ResetBandRoles(ctx context.Context, bandID string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&models.UserBand{}).
		Where("band_id = ?", bandID).
		Update("role", models.RoleMember).Error
}

func (r *repo) SetBandRole(ctx context.Context, userID, bandID string, role models.Role) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&models.UserBand{}).
		Where("user_id = ? AND band_id = ?", userID, bandID).
		Update("role", role).Error
}

func (r *repo) FindBandManager(ctx context.Context, bandID string) (*models.UserBand, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var membership models.UserBand
	if err := gormDB.WithContext(ctx).Preload("User").
		First(&membership, "band_id = ? AND role = ?", bandID, models.RoleManager).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// Event operations implementation

func (r *repo) CreateEvent(ctx context.Context, event *models.Event) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(event).Error
}

func (r *repo) UpdateEvent(ctx context.Context, event *models.Event) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Omit("Venue", "Tags", "Attachments", "Band").Save(event).Error
}

func (r *repo) DeleteEvent(ctx context.Context, id string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	// Cascade the event's relations before removing the event itself
	if err := gormDB.WithContext(ctx).Where("event_id = ?", id).Delete(&models.EventVenue{}).Error; err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("event_id = ?", id).Delete(&models.EventTag{}).Error; err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("event_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Delete(&models.Event{}, "id = ?", id).Error
}

func (r *repo) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var event models.Event
	if err := gormDB.WithContext(ctx).
		Preload("Band").
		Preload("Venue.Venue").
		Preload("Tags.Tag").
		First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindEventsByBandAndWindow returns the band's events whose closed interval
// touches [start, end]
func (r *repo) FindEventsByBandAndWindow(ctx context.Context, bandID string, start, end time.Time) ([]models.Event, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := gormDB.WithContext(ctx).
		Where("band_id = ? AND start <= ? AND \"end\" >= ?", bandID, end, start).
		Order("start").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Event{}).
		Preload("Band").
		Preload("Venue.Venue").
		Preload("Tags.Tag")

	if len(filter.BandIDs) > 0 {
		query = query.Where("band_id IN ?", filter.BandIDs)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		query = query.Where("\"end\" >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR notes ILIKE ?", pattern, pattern)
	}

	var events []*models.Event
	if err := query.Order("start").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Venue operations implementation

func (r *repo) CreateVenue(ctx context.Context, venue *models.Venue) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(venue).Error
}

func (r *repo) FindVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var venue models.Venue
	if err := gormDB.WithContext(ctx).First(&venue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

func (r *repo) UpsertEventVenue(ctx context.Context, eventID, venueID string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	link := models.EventVenue{EventID: eventID, VenueID: venueID}
	return gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"venue_id"}),
		}).
		Create(&link).Error
}

func (r *repo) DeleteEventVenue(ctx context.Context, eventID string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.EventVenue{}).Error
}

// Tag operations implementation

// ReplaceEventTags deletes the event's existing tag links and inserts the new
// set, matching the full replace-on-write semantics of tag updates
func (r *repo) ReplaceEventTags(ctx context.Context, eventID string, tagIDs []string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := gormDB.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.EventTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.EventTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, models.EventTag{EventID: eventID, TagID: tagID})
	}
	return gormDB.WithContext(ctx).Create(&links).Error
}

// Audit sink implementation

func (r *repo) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(entry).Error
}

// Notification outbox implementation

func (r *repo) CreateNotification(ctx context.Context, notification *models.Notification) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(notification).Error
}

func (r *repo) MarkNotificationPublished(ctx context.Context, id string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	now := time.Now()
	return gormDB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published":    true,
			"published_at": &now,
			"error":        "",
		}).Error
}

func (r *repo) RecordNotificationError(ctx context.Context, id, errMsg string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("error", errMsg).Error
}

func (r *repo) ListUnpublishedNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	var notifications []*models.Notification
	if err := gormDB.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}
