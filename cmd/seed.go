package cmd

import (
	"context"
	"time"

	"example.com/calendariko/config"
	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/database"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo data",
	Long: `Seeds the database with a demo admin account, a few bands with
managers and members, default tags, venues and sample events.
Intended for local development; refuses to run on a non-empty database.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeed()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// runSeed populates an empty database with demo data
func runSeed() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewRepository(db)

	count, err := repo.CountUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to inspect database: %v", err)
	}
	if count > 0 {
		log.Warn("Database is not empty, refusing to seed")
		return
	}

	// Demo accounts
	seedUser(ctx, repo, "admin@calendariko.com", "admin123", "Admin User", true)
	manager1 := seedUser(ctx, repo, "manager1@example.com", "manager123", "Marco Rossi", false)
	manager2 := seedUser(ctx, repo, "manager2@example.com", "manager123", "Giulia Bianchi", false)
	member1 := seedUser(ctx, repo, "member1@example.com", "member123", "Luca Verdi", false)
	member2 := seedUser(ctx, repo, "member2@example.com", "member123", "Anna Neri", false)

	// Demo bands
	band1 := seedBand(ctx, repo, "The Rockers", "the-rockers", "Rock band from Milano")
	band2 := seedBand(ctx, repo, "Jazz Collective", "jazz-collective", "Jazz ensemble from Roma")
	seedBand(ctx, repo, "Electronic Duo", "electronic-duo", "Electronic music duo from Torino")

	// Memberships
	seedMembership(ctx, repo, manager1, band1, models.RoleManager)
	seedMembership(ctx, repo, member1, band1, models.RoleMember)
	seedMembership(ctx, repo, manager2, band2, models.RoleManager)
	seedMembership(ctx, repo, member2, band2, models.RoleMember)

	// Demo venues
	venue1 := seedVenue(ctx, repo, "Circolo Magnolia", "Via Circonvallazione Idroscalo", "Milano", 45.4354, 9.2859)
	venue2 := seedVenue(ctx, repo, "Auditorium Parco della Musica", "Viale Pietro de Coubertin, 30", "Roma", 41.9234, 12.4707)

	// Default tags
	seedTags(db)

	// Demo events
	now := time.Now()
	nextWeek := now.AddDate(0, 0, 7)
	nextMonth := now.AddDate(0, 1, 0)
	cachet1 := 2500.00
	cachet2 := 3000.00
	eur := "EUR"

	event1 := &models.Event{
		Model:     models.Model{ID: uuid.NewString()},
		BandID:    band1.ID,
		Type:      models.EventTypeConcert,
		Title:     "Live @ Circolo Magnolia",
		Start:     at(nextWeek, 21, 0),
		End:       at(nextWeek, 23, 30),
		Status:    models.EventStatusConfirmed,
		Privacy:   models.PrivacyBand,
		Notes:     "Soundcheck ore 18:00. Backline incluso.",
		CreatedBy: manager1.ID,
		Cachet:    &cachet1,
		Valuta:    &eur,
	}
	seedEvent(ctx, repo, event1, venue1.ID)

	event2 := &models.Event{
		Model:     models.Model{ID: uuid.NewString()},
		BandID:    band2.ID,
		Type:      models.EventTypeConcert,
		Title:     "Jazz Night @ Auditorium",
		Start:     at(nextMonth, 20, 0),
		End:       at(nextMonth, 22, 0),
		Status:    models.EventStatusOption,
		Privacy:   models.PrivacyBand,
		Notes:     "Concerto di beneficenza",
		CreatedBy: manager2.ID,
		Cachet:    &cachet2,
		Valuta:    &eur,
	}
	seedEvent(ctx, repo, event2, venue2.ID)

	// An unavailability window for band 1
	unavailable := now.AddDate(0, 0, 14)
	seedEvent(ctx, repo, &models.Event{
		Model:     models.Model{ID: uuid.NewString()},
		BandID:    band1.ID,
		Type:      models.EventTypeUnavailable,
		Title:     "Vacanze estive",
		Start:     at(unavailable, 0, 0),
		End:       at(unavailable, 23, 59),
		AllDay:    true,
		Status:    models.EventStatusConfirmed,
		Privacy:   models.PrivacyBand,
		Notes:     "Band non disponibile",
		CreatedBy: manager1.ID,
	}, "")

	log.Info("Database seeded successfully")
	log.Info("Admin user: admin@calendariko.com / admin123")
	log.Info("Manager 1: manager1@example.com / manager123")
	log.Info("Manager 2: manager2@example.com / manager123")
	log.Info("Member 1: member1@example.com / member123")
	log.Info("Member 2: member2@example.com / member123")
}

func seedUser(ctx context.Context, repo repository.Repository, email, password, name string, isAdmin bool) *models.User {
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		Model:        models.Model{ID: uuid.NewString()},
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsAdmin:      isAdmin,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to seed user %s: %v", email, err)
	}
	return user
}

func seedBand(ctx context.Context, repo repository.Repository, name, slug, notes string) *models.Band {
	band := &models.Band{
		Model: models.Model{ID: uuid.NewString()},
		Name:  name,
		Slug:  slug,
		Notes: notes,
	}
	if err := repo.CreateBand(ctx, band); err != nil {
		log.Fatalf("Failed to seed band %s: %v", slug, err)
	}
	return band
}

func seedMembership(ctx context.Context, repo repository.Repository, user *models.User, band *models.Band, role models.Role) {
	if err := repo.ReplaceUserBands(ctx, user.ID, []models.UserBand{
		{UserID: user.ID, BandID: band.ID, Role: role},
	}); err != nil {
		log.Fatalf("Failed to seed membership: %v", err)
	}
}

func seedVenue(ctx context.Context, repo repository.Repository, name, address, city string, lat, lng float64) *models.Venue {
	venue := &models.Venue{
		Model:   models.Model{ID: uuid.NewString()},
		Name:    name,
		Address: address,
		City:    city,
		Country: "IT",
		Lat:     &lat,
		Lng:     &lng,
	}
	if err := repo.CreateVenue(ctx, venue); err != nil {
		log.Fatalf("Failed to seed venue %s: %v", name, err)
	}
	return venue
}

func seedTags(db database.DB) {
	gormDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}

	tags := []models.Tag{
		{Model: models.Model{ID: uuid.NewString()}, Name: "Festival", Color: "#f59e0b"},
		{Model: models.Model{ID: uuid.NewString()}, Name: "Club", Color: "#8b5cf6"},
		{Model: models.Model{ID: uuid.NewString()}, Name: "TV", Color: "#ec4899"},
		{Model: models.Model{ID: uuid.NewString()}, Name: "Promo", Color: "#10b981"},
		{Model: models.Model{ID: uuid.NewString()}, Name: "Tour", Color: "#3b82f6"},
	}
	if err := gormDB.Create(&tags).Error; err != nil {
		log.Fatalf("Failed to seed tags: %v", err)
	}
}

func seedEvent(ctx context.Context, repo repository.Repository, event *models.Event, venueID string) {
	if err := repo.CreateEvent(ctx, event); err != nil {
		log.Fatalf("Failed to seed event %s: %v", event.Title, err)
	}
	if venueID != "" {
		if err := repo.UpsertEventVenue(ctx, event.ID, venueID); err != nil {
			log.Fatalf("Failed to link event venue: %v", err)
		}
	}
}

// at returns the given day at hour:minute local time
func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
