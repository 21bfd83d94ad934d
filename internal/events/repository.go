package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrNotEnoughSeats = errors.New("not enough seats available")
)

// Repository is the event persistence contract. Two implementations
// exist: the Postgres one below and the in-memory one in internal/store,
// selected at startup by the configured store backend.
type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	GetUpcoming(ctx context.Context, limit int) ([]Event, error)
	GetFeatured(ctx context.Context, limit int) ([]Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error)
	// UpdateCategorySlug rewrites the denormalized category slug on every
	// event of the category after a rename.
	UpdateCategorySlug(ctx context.Context, categoryID uuid.UUID, slugName string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AdjustSeats atomically changes available_seats by delta (negative on
	// booking, positive on cancel). Fails with ErrNotEnoughSeats when the
	// decrement would go below zero.
	AdjustSeats(ctx context.Context, id uuid.UUID, delta int) error
	GetStats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *repository) GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	db := r.applyFilters(r.db.WithContext(ctx).Model(&Event{}), query)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	var events []Event
	err := db.Order(orderClause(query)).Offset(offset).Limit(query.Limit).Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}
	return events, total, nil
}

func (r *repository) GetUpcoming(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("date >= ?", time.Now().UTC()).
		Order("date ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	return events, nil
}

func (r *repository) GetFeatured(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("featured = ? AND date >= ?", true, time.Now().UTC()).
		Order("date ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get featured events: %w", err)
	}
	return events, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&event).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
	}

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to reload event: %w", err)
	}
	return &event, nil
}

func (r *repository) UpdateCategorySlug(ctx context.Context, categoryID uuid.UUID, slugName string) error {
	err := r.db.WithContext(ctx).
		Model(&Event{}).
		Where("category_id = ?", categoryID).
		Update("category_slug", slugName).Error
	if err != nil {
		return fmt.Errorf("failed to update category slug on events: %w", err)
	}
	return nil
}

// Delete removes the event and its bookings in one transaction so a
// half-deleted event can never be observed.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM bookings WHERE event_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete event bookings: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&Event{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete event: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}
		return nil
	})
}

func (r *repository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		seats := event.AvailableSeats + delta
		if seats < 0 {
			return ErrNotEnoughSeats
		}
		if seats > event.Capacity {
			seats = event.Capacity
		}

		return tx.Model(&event).Update("available_seats", seats).Error
	})
}

func (r *repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{EventsByStatus: make(map[Availability]int64)}

	if err := r.db.WithContext(ctx).Model(&Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&Event{}).
		Where("date >= ?", time.Now().UTC()).
		Count(&stats.UpcomingEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	var bookingAgg struct {
		Count   int64
		Revenue float64
	}
	err := r.db.WithContext(ctx).Table("bookings").
		Where("status = ?", "CONFIRMED").
		Select("COUNT(*) as count, COALESCE(SUM(total_price), 0) as revenue").
		Scan(&bookingAgg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	stats.TotalBookings = bookingAgg.Count
	stats.TotalRevenue = bookingAgg.Revenue

	rows := []struct {
		Status string
		Count  int64
	}{}
	err = r.db.WithContext(ctx).Model(&Event{}).
		Select(availabilityCase + " as status, COUNT(*) as count").
		Group("1").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to bucket events: %w", err)
	}
	for _, row := range rows {
		stats.EventsByStatus[Availability(row.Status)] = row.Count
	}
	return stats, nil
}

// availabilityCase mirrors Event.Availability so SQL-side filtering and
// bucketing agree with the in-memory derivation.
const availabilityCase = `CASE
	WHEN available_seats = 0 THEN 'sold-out'
	WHEN available_seats < 10 THEN 'few-tickets'
	WHEN price = 0 THEN 'free'
	ELSE 'available'
END`

func (r *repository) applyFilters(db *gorm.DB, query EventListQuery) *gorm.DB {
	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(venue) LIKE ?",
			term, term, term,
		)
	}
	if query.Category != "" {
		db = db.Where("category_slug = ?", query.Category)
	}
	if query.Status != "" {
		db = db.Where(availabilityCase+" = ?", query.Status)
	}
	if query.PriceMin > 0 {
		db = db.Where("price >= ?", query.PriceMin)
	}
	if query.PriceMax > 0 {
		db = db.Where("price <= ?", query.PriceMax)
	}
	if day, err := parseDay(query.Date); err == nil && query.Date != "" {
		db = db.Where("date >= ? AND date < ?", day, day.Add(24*time.Hour))
	}
	if from, err := parseDay(query.DateFrom); err == nil && query.DateFrom != "" {
		db = db.Where("date >= ?", from)
	}
	if to, err := parseDay(query.DateTo); err == nil && query.DateTo != "" {
		db = db.Where("date < ?", to.Add(24*time.Hour))
	}
	return db
}

func orderClause(query EventListQuery) string {
	column := "date"
	switch query.Sort {
	case "price":
		column = "price"
	case "title":
		column = "title"
	}
	direction := "ASC"
	if query.Order == "desc" {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}
