package bookings

import (
	"time"

	"github.com/google/uuid"

	"eventhub/internal/events"
)

type Booking struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	Quantity   int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	TotalPrice float64   `json:"total_price" gorm:"not null;check:total_price >= 0"`

	Status Status `json:"status" gorm:"not null;default:'CONFIRMED';index"`
	// BookingRef is the human-facing reference shown on the ticket,
	// e.g. EHB-20260830-K4PZQN.
	BookingRef string `json:"booking_ref" gorm:"uniqueIndex;not null;size:24"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type BookingResponse struct {
	ID          string                `json:"id"`
	BookingRef  string                `json:"booking_ref"`
	Quantity    int                   `json:"quantity"`
	TotalPrice  float64               `json:"total_price"`
	Status      Status                `json:"status"`
	Event       *events.EventResponse `json:"event,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
}

type CreateBookingRequest struct {
	EventID  string `json:"event_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type BookingListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=CONFIRMED CANCELLED ATTENDED"`
	// Bucket splits a user's bookings the way the "my tickets" page does.
	Bucket string `form:"bucket" binding:"omitempty,oneof=upcoming past cancelled"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:          b.ID.String(),
		BookingRef:  b.BookingRef,
		Quantity:    b.Quantity,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}
