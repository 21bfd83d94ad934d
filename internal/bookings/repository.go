package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("booking not found")

// Repository is the booking persistence contract, with a Postgres
// implementation here and an in-memory one in internal/store.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByRef(ctx context.Context, ref string) (*Booking, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]Booking, error)
	GetAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByRef(ctx context.Context, ref string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("booking_ref = ?", ref).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	db := r.applyFilters(r.db.WithContext(ctx).Model(&Booking{}), query).
		Where("bookings.user_id = ?", userID)
	return r.paginate(db, query)
}

func (r *repository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get event bookings: %w", err)
	}
	return bookings, nil
}

func (r *repository) GetAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	db := r.applyFilters(r.db.WithContext(ctx).Model(&Booking{}), query)
	return r.paginate(db, query)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if cancelledAt != nil {
		updates["cancelled_at"] = cancelledAt
	}
	result := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Booking{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete user bookings: %w", err)
	}
	return nil
}

// applyFilters handles status and bucket. Buckets need the event date, so
// they join the events table.
func (r *repository) applyFilters(db *gorm.DB, query BookingListQuery) *gorm.DB {
	if query.Status != "" {
		db = db.Where("bookings.status = ?", query.Status)
	}
	switch query.Bucket {
	case "upcoming":
		db = db.Joins("JOIN events ON events.id = bookings.event_id").
			Where("bookings.status = ? AND events.date >= ?", StatusConfirmed, time.Now().UTC())
	case "past":
		db = db.Joins("JOIN events ON events.id = bookings.event_id").
			Where("bookings.status != ? AND events.date < ?", StatusCancelled, time.Now().UTC())
	case "cancelled":
		db = db.Where("bookings.status = ?", StatusCancelled)
	}
	return db
}

func (r *repository) paginate(db *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	var bookings []Booking
	err := db.Order("bookings.created_at DESC").Offset(offset).Limit(query.Limit).Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, total, nil
}
