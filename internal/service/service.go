package service

import (
	"context"
	"errors"
	"time"

	"example.com/calendariko/internal/audit"
	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/cache"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/notification"
	"example.com/calendariko/internal/repository"
	"example.com/calendariko/internal/search"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventInput carries the payload for creating an event
type EventInput struct {
	BandID  string              `json:"band_id"`
	Type    models.EventType    `json:"type"`
	Title   string              `json:"title"`
	Start   time.Time           `json:"start"`
	End     time.Time           `json:"end"`
	AllDay  bool                `json:"all_day"`
	Status  models.EventStatus  `json:"status"`
	Privacy models.EventPrivacy `json:"privacy"`
	Notes   string              `json:"notes"`

	VenueID      string `json:"venue_id"`
	VenueName    string `json:"venue_name"`
	VenueAddress string `json:"venue_address"`
	VenueCity    string `json:"venue_city"`
	VenueCountry string `json:"venue_country"`

	Cachet  *float64 `json:"cachet"`
	Acconto *float64 `json:"acconto"`
	Spese   *float64 `json:"spese"`
	Valuta  *string  `json:"valuta"`

	TagIDs *[]string `json:"tag_ids"`
}

// EventPatch carries a partial update; nil fields are left unchanged
type EventPatch struct {
	Type    *models.EventType    `json:"type"`
	Title   *string              `json:"title"`
	Start   *time.Time           `json:"start"`
	End     *time.Time           `json:"end"`
	AllDay  *bool                `json:"all_day"`
	Status  *models.EventStatus  `json:"status"`
	Privacy *models.EventPrivacy `json:"privacy"`
	Notes   *string              `json:"notes"`

	// VenueName set to the empty string clears the venue association
	VenueID      *string `json:"venue_id"`
	VenueName    *string `json:"venue_name"`
	VenueAddress *string `json:"venue_address"`
	VenueCity    *string `json:"venue_city"`
	VenueCountry *string `json:"venue_country"`

	Cachet  *float64 `json:"cachet"`
	Acconto *float64 `json:"acconto"`
	Spese   *float64 `json:"spese"`
	Valuta  *string  `json:"valuta"`

	TagIDs *[]string `json:"tag_ids"`
}

// EventFilters narrows event listings for the calendar view
type EventFilters struct {
	BandIDs  []string
	Types    []models.EventType
	Statuses []models.EventStatus
	From     *time.Time
	To       *time.Time
	Search   string
}

// BandInput carries the payload for creating or updating a band
type BandInput struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Notes string `json:"notes"`
}

// MembershipInput assigns a user to a band with a role
type MembershipInput struct {
	BandID string      `json:"band_id"`
	Role   models.Role `json:"role"`
}

// UserInput carries the payload for creating a user
type UserInput struct {
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	Name        string            `json:"name"`
	IsAdmin     bool              `json:"is_admin"`
	Memberships []MembershipInput `json:"memberships"`
}

// UserPatch carries a partial user update; nil fields are left unchanged
type UserPatch struct {
	Email       *string            `json:"email"`
	Name        *string            `json:"name"`
	IsAdmin     *bool              `json:"is_admin"`
	NewPassword *string            `json:"new_password"`
	Memberships *[]MembershipInput `json:"memberships"`
}

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service defines the business logic operations
type Service interface {
	// Identity resolution and account operations
	Login(ctx context.Context, email, password string) (*TokenPair, *auth.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ResolveIdentity(ctx context.Context, userID string) (*auth.Identity, error)
	ChangePassword(ctx context.Context, identity *auth.Identity, current, updated string) error
	Setup(ctx context.Context, input UserInput) (*models.User, error)

	// User management
	CreateUser(ctx context.Context, identity *auth.Identity, input UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, identity *auth.Identity, userID string, patch UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, identity *auth.Identity, userID string) error
	GetUser(ctx context.Context, identity *auth.Identity, userID string) (*models.User, error)
	ListUsers(ctx context.Context, identity *auth.Identity) ([]*models.User, error)

	// Band management
	CreateBand(ctx context.Context, identity *auth.Identity, input BandInput) (*models.Band, error)
	UpdateBand(ctx context.Context, identity *auth.Identity, bandID string, input BandInput) (*models.Band, error)
	DeleteBand(ctx context.Context, identity *auth.Identity, bandID string) error
	GetBand(ctx context.Context, identity *auth.Identity, bandID string) (*models.Band, error)
	ListBands(ctx context.Context, identity *auth.Identity) ([]*models.Band, error)
	SetReferente(ctx context.Context, identity *auth.Identity, bandID string, userID *string) (*models.Band, error)

	// Event lifecycle
	CreateEvent(ctx context.Context, identity *auth.Identity, input EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, identity *auth.Identity, eventID string, patch EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, identity *auth.Identity, eventID string) error
	GetEvent(ctx context.Context, identity *auth.Identity, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context, identity *auth.Identity, filters EventFilters) ([]*models.Event, error)
}

// service is an implementation of the Service interface
type service struct {
	repo     repository.Repository
	cache    cache.RedisClient
	tokens   *auth.TokenManager
	audit    audit.Recorder
	notifier notification.Notifier
	searcher *search.ElasticClient
	log      *logrus.Logger
}

// ServiceConfig holds the dependencies for the service
type ServiceConfig struct {
	Repository repository.Repository
	Cache      cache.RedisClient
	Tokens     *auth.TokenManager
	Audit      audit.Recorder
	Notifier   notification.Notifier
	Searcher   *search.ElasticClient
	Logger     *logrus.Logger
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if cfg.Audit == nil {
		return nil, errors.New("audit recorder is required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &service{
		repo:     cfg.Repository,
		cache:    cfg.Cache,
		tokens:   cfg.Tokens,
		audit:    cfg.Audit,
		notifier: cfg.Notifier,
		searcher: cfg.Searcher,
		log:      cfg.Logger,
	}, nil
}

// isRecordNotFound translates the storage layer's miss into the domain error
func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
