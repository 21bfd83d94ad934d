package events

import (
	"time"

	"github.com/google/uuid"
)

// CategoryInfo is the category summary embedded in event responses
type CategoryInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Venue       string    `json:"venue" gorm:"not null;size:255"`

	CategoryID uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	// CategorySlug is denormalized for filtering without a join; kept in sync
	// by the service whenever the category changes.
	CategorySlug string `json:"category_slug" gorm:"size:100;index"`

	Date      time.Time `json:"date" gorm:"not null;index"`
	TimeRange string    `json:"time_range" gorm:"size:100"` // free text, e.g. "19:00 - 22:30"

	Price          float64 `json:"price" gorm:"not null;check:price >= 0"`
	Capacity       int     `json:"capacity" gorm:"not null;check:capacity > 0"`
	AvailableSeats int     `json:"available_seats" gorm:"not null;check:available_seats >= 0"`

	Featured bool   `json:"featured" gorm:"default:false"`
	ImageURL string `json:"image_url" gorm:"size:500"`

	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

type EventResponse struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Venue          string       `json:"venue"`
	Category       CategoryInfo `json:"category"`
	Date           time.Time    `json:"date"`
	TimeRange      string       `json:"time_range"`
	Price          float64      `json:"price"`
	Capacity       int          `json:"capacity"`
	AvailableSeats int          `json:"available_seats"`
	Status         Availability `json:"status"`
	Featured       bool         `json:"featured"`
	ImageURL       string       `json:"image_url"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	Description string    `json:"description" binding:"max=2000"`
	Venue       string    `json:"venue" binding:"required,min=3,max=255"`
	Category    string    `json:"category" binding:"required"` // slug
	Date        time.Time `json:"date" binding:"required"`
	TimeRange   string    `json:"time_range" binding:"max=100"`
	Price       float64   `json:"price" binding:"min=0"`
	Capacity    int       `json:"capacity" binding:"required,min=1,max=100000"`
	Featured    bool      `json:"featured"`
	ImageURL    string    `json:"image_url" binding:"omitempty,url"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Venue       *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	Category    *string    `json:"category"` // slug
	Date        *time.Time `json:"date"`
	TimeRange   *string    `json:"time_range" binding:"omitempty,max=100"`
	Price       *float64   `json:"price" binding:"omitempty,min=0"`
	Capacity    *int       `json:"capacity" binding:"omitempty,min=1,max=100000"`
	Featured    *bool      `json:"featured"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
}

// EventListQuery carries the discovery page filters: free-text search,
// category, derived status bucket, price range, date window, sort and page.
type EventListQuery struct {
	Page     int     `form:"page" binding:"omitempty,min=1"`
	Limit    int     `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string  `form:"search"`
	Category string  `form:"category"` // slug
	Status   string  `form:"status" binding:"omitempty,availability"`
	PriceMin float64 `form:"price_min" binding:"omitempty,min=0"`
	PriceMax float64 `form:"price_max" binding:"omitempty,min=0"`
	Date     string  `form:"date"`      // exact day, YYYY-MM-DD
	DateFrom string  `form:"date_from"` // YYYY-MM-DD
	DateTo   string  `form:"date_to"`   // YYYY-MM-DD
	Sort     string  `form:"sort" binding:"omitempty,oneof=date price title"`
	Order    string  `form:"order" binding:"omitempty,oneof=asc desc"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// Stats feeds the admin dashboard
type Stats struct {
	TotalEvents    int64                  `json:"total_events"`
	TotalBookings  int64                  `json:"total_bookings"`
	TotalRevenue   float64                `json:"total_revenue"`
	UpcomingEvents int64                  `json:"upcoming_events"`
	EventsByStatus map[Availability]int64 `json:"events_by_status"`
}

// ToResponse converts an Event to its API shape.
// Note: Category is populated separately by the service layer.
func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:             e.ID.String(),
		Title:          e.Title,
		Description:    e.Description,
		Venue:          e.Venue,
		Category:       CategoryInfo{Slug: e.CategorySlug},
		Date:           e.Date,
		TimeRange:      e.TimeRange,
		Price:          e.Price,
		Capacity:       e.Capacity,
		AvailableSeats: e.AvailableSeats,
		Status:         e.Availability(),
		Featured:       e.Featured,
		ImageURL:       e.ImageURL,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}
