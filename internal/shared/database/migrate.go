package database

import (
	"eventhub/internal/bookings"
	"eventhub/internal/categories"
	"eventhub/internal/events"
	"eventhub/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&categories.Category{},
		&events.Event{},
		&bookings.Booking{},
	)
}
