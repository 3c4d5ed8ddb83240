package models

import (
	"time"
)

// Model is the base model with common fields for all database entities
type Model struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role represents a user's role inside a band
type Role string

const (
	// RoleMember is a plain band member
	RoleMember Role = "MEMBER"
	// RoleManager is the band referente, with elevated rights on band events
	RoleManager Role = "MANAGER"
)

// EventType is an enum for calendar event types
type EventType string

const (
	// EventTypeConcert represents a concert booking
	EventTypeConcert EventType = "CONCERTO"
	// EventTypeUnavailable represents an unavailability window for the band
	EventTypeUnavailable EventType = "INDISPONIBILITA"
	// EventTypeAgencyBlock represents a block placed by the agency
	EventTypeAgencyBlock EventType = "BLOCCO_AGENZIA"
)

// EventStatus is an enum for the informational event status. Any status may
// move to any other status; there is no enforced workflow graph.
type EventStatus string

const (
	EventStatusTentative EventStatus = "TENTATIVO"
	EventStatusOption    EventStatus = "OPZIONE"
	EventStatusConfirmed EventStatus = "CONFERMATO"
	EventStatusCancelled EventStatus = "ANNULLATO"
)

// EventPrivacy controls who may see an event's financial fields
type EventPrivacy string

const (
	// PrivacyBand events show financials to the band's manager
	PrivacyBand EventPrivacy = "BAND"
	// PrivacyAgency events keep financials opaque to everyone but admins
	PrivacyAgency EventPrivacy = "AGENZIA"
)

// User model represents an account that can log in
type User struct {
	Model
	Email        string     `json:"email" gorm:"uniqueIndex;Column:email"`
	PasswordHash string     `json:"-" gorm:"Column:password_hash"`
	Name         string     `json:"name" gorm:"Column:name"`
	IsAdmin      bool       `json:"is_admin" gorm:"Column:is_admin"`
	Bands        []UserBand `json:"bands,omitempty" gorm:"foreignKey:UserID"`
}

// Band model represents a band managed through the calendar
type Band struct {
	Model
	Name   string     `json:"name" gorm:"Column:name"`
	Slug   string     `json:"slug" gorm:"uniqueIndex;Column:slug"`
	Notes  string     `json:"notes" gorm:"Column:notes;type:text"`
	Users  []UserBand `json:"users,omitempty" gorm:"foreignKey:BandID"`
	Events []Event    `json:"events,omitempty" gorm:"foreignKey:BandID"`
}

// UserBand is the membership join between users and bands. A user holds at
// most one role per band.
type UserBand struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:uuid;Column:user_id"`
	BandID    string    `json:"band_id" gorm:"primaryKey;type:uuid;Column:band_id"`
	Role      Role      `json:"role" gorm:"Column:role"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Band      *Band     `json:"band,omitempty" gorm:"foreignKey:BandID"`
}

// Event model represents a calendar entry owned by exactly one band
type Event struct {
	Model
	BandID    string       `json:"band_id" gorm:"index;type:uuid;Column:band_id"`
	Type      EventType    `json:"type" gorm:"Column:type"`
	Title     string       `json:"title" gorm:"Column:title"`
	Start     time.Time    `json:"start" gorm:"index;Column:start"`
	End       time.Time    `json:"end" gorm:"index;Column:end"`
	AllDay    bool         `json:"all_day" gorm:"Column:all_day"`
	Status    EventStatus  `json:"status" gorm:"Column:status"`
	Privacy   EventPrivacy `json:"privacy" gorm:"Column:privacy"`
	Notes     string       `json:"notes" gorm:"Column:notes;type:text"`
	CreatedBy string       `json:"created_by" gorm:"type:uuid;Column:created_by"`
	UpdatedBy *string      `json:"updated_by,omitempty" gorm:"type:uuid;Column:updated_by"`

	// Financial fields, cleared on read for viewers without financial rights
	Cachet  *float64 `json:"cachet,omitempty" gorm:"Column:cachet"`
	Acconto *float64 `json:"acconto,omitempty" gorm:"Column:acconto"`
	Spese   *float64 `json:"spese,omitempty" gorm:"Column:spese"`
	Valuta  *string  `json:"valuta,omitempty" gorm:"Column:valuta"`

	Band        *Band        `json:"band,omitempty" gorm:"foreignKey:BandID"`
	Venue       *EventVenue  `json:"venue,omitempty" gorm:"foreignKey:EventID"`
	Tags        []EventTag   `json:"tags,omitempty" gorm:"foreignKey:EventID"`
	Attachments []Attachment `json:"attachments,omitempty" gorm:"foreignKey:EventID"`
}

// RedactFinancials clears the financial fields before the event is returned
// to a viewer without financial rights
func (e *Event) RedactFinancials() {
	e.Cachet = nil
	e.Acconto = nil
	e.Spese = nil
	e.Valuta = nil
}

// Venue model represents a concert location
type Venue struct {
	Model
	Name    string   `json:"name" gorm:"Column:name"`
	Address string   `json:"address" gorm:"Column:address"`
	City    string   `json:"city" gorm:"Column:city"`
	Country string   `json:"country" gorm:"Column:country"`
	Lat     *float64 `json:"lat,omitempty" gorm:"Column:lat"`
	Lng     *float64 `json:"lng,omitempty" gorm:"Column:lng"`
}

// EventVenue links an event to its venue. An event has at most one venue
// association at a time; writing a new one is an upsert by event id.
type EventVenue struct {
	EventID   string    `json:"event_id" gorm:"primaryKey;type:uuid;Column:event_id"`
	VenueID   string    `json:"venue_id" gorm:"type:uuid;Column:venue_id"`
	CreatedAt time.Time `json:"created_at"`
	Venue     *Venue    `json:"venue,omitempty" gorm:"foreignKey:VenueID"`
}

// Tag model represents a label that can be attached to events
type Tag struct {
	Model
	Name  string `json:"name" gorm:"uniqueIndex;Column:name"`
	Color string `json:"color" gorm:"Column:color"`
}

// EventTag is the many-to-many join between events and tags. Updates are a
// full replace of the event's tag set, not an incremental diff.
type EventTag struct {
	EventID string `json:"event_id" gorm:"primaryKey;type:uuid;Column:event_id"`
	TagID   string `json:"tag_id" gorm:"primaryKey;type:uuid;Column:tag_id"`
	Tag     *Tag   `json:"tag,omitempty" gorm:"foreignKey:TagID"`
}

// Attachment model represents a file attached to an event. Attachments are
// removed together with their event.
type Attachment struct {
	Model
	EventID    string `json:"event_id" gorm:"index;type:uuid;Column:event_id"`
	Filename   string `json:"filename" gorm:"Column:filename"`
	Mime       string `json:"mime" gorm:"Column:mime"`
	Size       int64  `json:"size" gorm:"Column:size"`
	StorageKey string `json:"storage_key" gorm:"Column:storage_key"`
	UploadedBy string `json:"uploaded_by" gorm:"type:uuid;Column:uploaded_by"`
}

// AuditLog model is an append-only record of mutations, never read back by
// the application
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Entity    string    `json:"entity" gorm:"Column:entity"`
	EntityID  string    `json:"entity_id" gorm:"Column:entity_id"`
	Action    string    `json:"action" gorm:"Column:action"`
	ActorID   string    `json:"actor_id" gorm:"type:uuid;Column:actor_id"`
	Metadata  string    `json:"metadata" gorm:"Column:metadata;type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification model is the outbox row for manager emails. Rows are published
// to the notification queue best-effort on write; the worker republishes
// anything left unpublished.
type Notification struct {
	Model
	EventID     string     `json:"event_id" gorm:"index;type:uuid;Column:event_id"`
	Recipient   string     `json:"recipient" gorm:"Column:recipient"`
	Payload     string     `json:"payload" gorm:"Column:payload;type:text"`
	IsUpdate    bool       `json:"is_update" gorm:"Column:is_update"`
	Published   bool       `json:"published" gorm:"index;Column:published"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"Column:published_at"`
	Error       string     `json:"error" gorm:"Column:error"`
}
