package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/bookings"
	"eventhub/pkg/listing"
)

// bookingRepository implements bookings.Repository on top of the Store.
type bookingRepository struct {
	store *Store
}

func NewBookingRepository(s *Store) bookings.Repository {
	return &bookingRepository{store: s}
}

func (r *bookingRepository) Create(ctx context.Context, booking *bookings.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.store.PutBooking(ctx, *booking)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	b, ok := r.store.GetBooking(id)
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	return &b, nil
}

func (r *bookingRepository) GetByRef(ctx context.Context, ref string) (*bookings.Booking, error) {
	for _, b := range r.store.ListBookings() {
		if b.BookingRef == ref {
			return &b, nil
		}
	}
	return nil, bookings.ErrBookingNotFound
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID uuid.UUID, query bookings.BookingListQuery) ([]bookings.Booking, int64, error) {
	preds := r.predicates(query)
	preds = append(preds, func(b bookings.Booking) bool { return b.UserID == userID })
	return r.list(preds, query)
}

func (r *bookingRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]bookings.Booking, error) {
	var out []bookings.Booking
	for _, b := range r.store.ListBookings() {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookingRepository) GetAll(ctx context.Context, query bookings.BookingListQuery) ([]bookings.Booking, int64, error) {
	return r.list(r.predicates(query), query)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status bookings.Status, cancelledAt *time.Time) error {
	_, err := r.store.UpdateBooking(ctx, id, func(b *bookings.Booking) error {
		b.Status = status
		if cancelledAt != nil {
			b.CancelledAt = cancelledAt
		}
		b.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err == ErrNotFound {
		return bookings.ErrBookingNotFound
	}
	return err
}

func (r *bookingRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	r.store.DeleteBookingsByUser(ctx, userID)
	return nil
}

// predicates mirrors the SQL repository's status and bucket filters.
// Buckets look the event up in the same store, so the date check sees
// the same snapshot semantics as the join does in Postgres.
func (r *bookingRepository) predicates(query bookings.BookingListQuery) []listing.Predicate[bookings.Booking] {
	var preds []listing.Predicate[bookings.Booking]

	if query.Status != "" {
		want := bookings.Status(query.Status)
		preds = append(preds, func(b bookings.Booking) bool { return b.Status == want })
	}

	now := time.Now().UTC()
	switch query.Bucket {
	case "upcoming":
		preds = append(preds, func(b bookings.Booking) bool {
			e, ok := r.store.GetEvent(b.EventID)
			return ok && b.Status == bookings.StatusConfirmed && !e.Date.Before(now)
		})
	case "past":
		preds = append(preds, func(b bookings.Booking) bool {
			e, ok := r.store.GetEvent(b.EventID)
			return ok && b.Status != bookings.StatusCancelled && e.Date.Before(now)
		})
	case "cancelled":
		preds = append(preds, func(b bookings.Booking) bool {
			return b.Status == bookings.StatusCancelled
		})
	}
	return preds
}

func (r *bookingRepository) list(preds []listing.Predicate[bookings.Booking], query bookings.BookingListQuery) ([]bookings.Booking, int64, error) {
	newestFirst := listing.Descending(func(a, b bookings.Booking) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	page := listing.Apply(
		r.store.ListBookings(),
		preds,
		newestFirst,
		listing.Params{Page: query.Page, PageSize: query.Limit},
	)
	return page.Items, page.TotalCount, nil
}
