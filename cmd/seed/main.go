package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventhub/internal/bookings"
	"eventhub/internal/categories"
	"eventhub/internal/events"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database"
	"eventhub/internal/users"
	"eventhub/pkg/logger"
)

// Seeds a development database with categories, users, events and a few
// bookings. Safe to run repeatedly; rows are matched by their natural keys.
func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		appLogger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to initialize databases", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	pg := db.GetPostgreSQL()

	admin, regular, err := seedUsers(pg)
	if err != nil {
		appLogger.Error("Failed to seed users", slog.Any("error", err))
		os.Exit(1)
	}

	cats, err := seedCategories(pg, admin.ID)
	if err != nil {
		appLogger.Error("Failed to seed categories", slog.Any("error", err))
		os.Exit(1)
	}

	evs, err := seedEvents(pg, admin.ID, cats)
	if err != nil {
		appLogger.Error("Failed to seed events", slog.Any("error", err))
		os.Exit(1)
	}

	if err := seedBookings(pg, regular.ID, evs); err != nil {
		appLogger.Error("Failed to seed bookings", slog.Any("error", err))
		os.Exit(1)
	}

	appLogger.Info("Seed complete",
		slog.Int("categories", len(cats)),
		slog.Int("events", len(evs)),
	)
}

func seedUsers(db *gorm.DB) (*users.User, *users.User, error) {
	admin, err := upsertUser(db, users.User{
		FirstName: "Ava",
		LastName:  "Admin",
		Email:     "admin@eventhub.local",
		Role:      users.RoleAdmin,
		Verified:  true,
	}, "admin-password")
	if err != nil {
		return nil, nil, err
	}

	regular, err := upsertUser(db, users.User{
		FirstName: "Noah",
		LastName:  "Carter",
		Email:     "noah@eventhub.local",
		Role:      users.RoleUser,
		Verified:  true,
	}, "user-password")
	if err != nil {
		return nil, nil, err
	}

	return admin, regular, nil
}

func upsertUser(db *gorm.DB, user users.User, password string) (*users.User, error) {
	var existing users.User
	err := db.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func seedCategories(db *gorm.DB, adminID uuid.UUID) ([]categories.Category, error) {
	seeds := []categories.Category{
		{Name: "Music", Description: "Concerts, gigs and festivals", Color: "#8B5CF6"},
		{Name: "Technology", Description: "Conferences, meetups and hackathons", Color: "#3B82F6"},
		{Name: "Sports", Description: "Matches, races and tournaments", Color: "#22C55E"},
		{Name: "Arts & Theatre", Description: "Plays, exhibitions and performances", Color: "#F59E0B"},
	}

	out := make([]categories.Category, 0, len(seeds))
	for _, c := range seeds {
		c.Slug = slug.Make(c.Name)
		c.CreatedBy = adminID

		var existing categories.Category
		err := db.Where("slug = ?", c.Slug).First(&existing).Error
		if err == nil {
			out = append(out, existing)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if err := db.Create(&c).Error; err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func seedEvents(db *gorm.DB, adminID uuid.UUID, cats []categories.Category) ([]events.Event, error) {
	byName := make(map[string]categories.Category, len(cats))
	for _, c := range cats {
		byName[c.Name] = c
	}

	now := time.Now().UTC()
	seeds := []events.Event{
		{
			Title:        "Midnight Synth Festival",
			Description:  "An open-air night of synthwave and electronica.",
			Venue:        "Riverside Amphitheatre",
			CategoryID:   byName["Music"].ID,
			CategorySlug: byName["Music"].Slug,
			Date:         now.AddDate(0, 1, 0),
			TimeRange:    "20:00 - 02:00",
			Price:        49.50,
			Capacity:     500,
			Featured:     true,
		},
		{
			Title:        "GopherCon Regional",
			Description:  "A full day of talks on backend engineering and distributed systems.",
			Venue:        "Convention Centre Hall B",
			CategoryID:   byName["Technology"].ID,
			CategorySlug: byName["Technology"].Slug,
			Date:         now.AddDate(0, 2, 0),
			TimeRange:    "09:00 - 18:00",
			Price:        120,
			Capacity:     300,
			Featured:     true,
		},
		{
			Title:        "Community Fun Run",
			Description:  "10k charity run through the old town. All levels welcome.",
			Venue:        "Old Town Square",
			CategoryID:   byName["Sports"].ID,
			CategorySlug: byName["Sports"].Slug,
			Date:         now.AddDate(0, 0, 14),
			TimeRange:    "08:00 - 12:00",
			Price:        0,
			Capacity:     1000,
		},
		{
			Title:        "An Evening of One-Act Plays",
			Description:  "Four short plays from emerging local playwrights.",
			Venue:        "The Lantern Theatre",
			CategoryID:   byName["Arts & Theatre"].ID,
			CategorySlug: byName["Arts & Theatre"].Slug,
			Date:         now.AddDate(0, 0, 21),
			TimeRange:    "19:30 - 22:00",
			Price:        18,
			Capacity:     8,
		},
	}

	out := make([]events.Event, 0, len(seeds))
	for _, e := range seeds {
		e.AvailableSeats = e.Capacity
		e.CreatedBy = adminID

		var existing events.Event
		err := db.Where("title = ? AND venue = ?", e.Title, e.Venue).First(&existing).Error
		if err == nil {
			out = append(out, existing)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if err := db.Create(&e).Error; err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func seedBookings(db *gorm.DB, userID uuid.UUID, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	var count int64
	if err := db.Model(&bookings.Booking{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	event := evs[0]
	quantity := 2
	booking := bookings.Booking{
		UserID:     userID,
		EventID:    event.ID,
		Quantity:   quantity,
		TotalPrice: event.Price * float64(quantity),
		Status:     bookings.StatusConfirmed,
		BookingRef: fmt.Sprintf("EHB-%s-SEED01", time.Now().UTC().Format("20060102")),
	}
	if err := db.Create(&booking).Error; err != nil {
		return err
	}

	return db.Model(&events.Event{}).
		Where("id = ?", event.ID).
		Update("available_seats", gorm.Expr("available_seats - ?", quantity)).Error
}
