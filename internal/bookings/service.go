package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/events"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/constants"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

var (
	ErrEventSoldOut     = errors.New("event is sold out")
	ErrNotEnoughSeats   = errors.New("not enough seats available")
	ErrEventInPast      = errors.New("event has already taken place")
	ErrTooManyTickets   = errors.New("quantity exceeds the per-booking limit")
	ErrNotBookingOwner  = errors.New("booking belongs to another user")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrCannotCancel     = errors.New("booking can no longer be cancelled")
	ErrCannotAttend     = errors.New("only confirmed bookings can be marked attended")
)

// Notifier receives booking lifecycle events. The notifications package
// provides the Kafka-backed implementation; a nil Notifier disables it.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking Booking, eventTitle string)
	BookingCancelled(ctx context.Context, booking Booking, eventTitle string)
	EventCancelled(ctx context.Context, userID, eventID uuid.UUID, eventTitle string)
}

type Service interface {
	BookTickets(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	CancelBooking(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingResponse, error)
	GetAllBookings(ctx context.Context, query BookingListQuery) (*PaginatedBookings, error)
	GetBookingByRef(ctx context.Context, userID uuid.UUID, isAdmin bool, ref string) (*BookingResponse, error)
	MarkAttended(ctx context.Context, id uuid.UUID) (*BookingResponse, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	SetNotifier(n Notifier)

	// EventCancelled satisfies events.CancellationNotifier.
	EventCancelled(ctx context.Context, eventID uuid.UUID, eventTitle string)
}

type service struct {
	repo     Repository
	events   events.Repository
	cache    cache.Service
	cfg      config.BookingConfig
	log      *logger.Logger
	notifier Notifier
}

func NewService(repo Repository, eventRepo events.Repository, cacheSvc cache.Service, cfg config.BookingConfig, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		events: eventRepo,
		cache:  cacheSvc,
		cfg:    cfg,
		log:    log,
	}
}

// SetNotifier wires the notification producer after construction, since
// notifications depend on booking types.
func (s *service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *service) BookTickets(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Date.Before(time.Now().UTC()) {
		return nil, ErrEventInPast
	}
	if req.Quantity > s.cfg.MaxTicketsPerBooking {
		return nil, ErrTooManyTickets
	}
	if event.IsSoldOut() {
		return nil, ErrEventSoldOut
	}

	// The seat decrement is the atomic gate: it fails when a concurrent
	// booking took the remaining seats first.
	if err := s.events.AdjustSeats(ctx, eventID, -req.Quantity); err != nil {
		if errors.Is(err, events.ErrNotEnoughSeats) {
			return nil, ErrNotEnoughSeats
		}
		return nil, err
	}

	ref, err := generateBookingRef()
	if err != nil {
		_ = s.events.AdjustSeats(ctx, eventID, req.Quantity)
		return nil, err
	}

	booking := &Booking{
		UserID:     userID,
		EventID:    eventID,
		Quantity:   req.Quantity,
		TotalPrice: event.Price * float64(req.Quantity),
		Status:     StatusConfirmed,
		BookingRef: ref,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		// Give the seats back; the booking never existed.
		_ = s.events.AdjustSeats(ctx, eventID, req.Quantity)
		return nil, err
	}

	s.invalidateEventCaches(ctx)
	s.log.LogBookingCreated(ctx, booking.ID.String(), eventID.String(), userID.String(), req.Quantity)
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, *booking, event.Title)
	}

	resp := s.toResponse(ctx, booking)
	return &resp, nil
}

func (s *service) GetBooking(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && !isAdmin {
		return nil, ErrNotBookingOwner
	}
	resp := s.toResponse(ctx, booking)
	return &resp, nil
}

// GetBookingByRef serves confirmation lookups by the human-facing
// booking reference instead of the id.
func (s *service) GetBookingByRef(ctx context.Context, userID uuid.UUID, isAdmin bool, ref string) (*BookingResponse, error) {
	booking, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && !isAdmin {
		return nil, ErrNotBookingOwner
	}
	resp := s.toResponse(ctx, booking)
	return &resp, nil
}

// EventCancelled fans the cancellation out to every confirmed booking
// holder. Called by the events service before a deletion cascades.
func (s *service) EventCancelled(ctx context.Context, eventID uuid.UUID, eventTitle string) {
	if s.notifier == nil {
		return
	}
	holders, err := s.repo.GetByEventID(ctx, eventID)
	if err != nil {
		s.log.ErrorWithContext(ctx, "Failed to load bookings for cancelled event", err, map[string]interface{}{
			"event_id": eventID.String(),
		})
		return
	}
	for _, b := range holders {
		if b.Status != StatusConfirmed {
			continue
		}
		s.notifier.EventCancelled(ctx, b.UserID, eventID, eventTitle)
	}
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	normalizeQuery(&query)
	items, total, err := s.repo.GetByUserID(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	return s.paginated(ctx, items, total, query), nil
}

func (s *service) CancelBooking(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && !isAdmin {
		return nil, ErrNotBookingOwner
	}
	if booking.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !booking.Status.CanBeCancelled() {
		return nil, ErrCannotCancel
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, &now); err != nil {
		return nil, err
	}

	if s.cfg.RestoreSeatsOnCancel {
		if err := s.events.AdjustSeats(ctx, booking.EventID, booking.Quantity); err != nil &&
			!errors.Is(err, events.ErrEventNotFound) {
			s.log.ErrorWithContext(ctx, "Failed to restore seats after cancellation", err, map[string]interface{}{
				"booking_id": id.String(),
				"event_id":   booking.EventID.String(),
			})
		}
	}

	s.invalidateEventCaches(ctx)
	s.log.LogBookingCancelled(ctx, id.String(), booking.EventID.String(), userID.String())

	booking.Status = StatusCancelled
	booking.CancelledAt = &now
	if s.notifier != nil {
		eventTitle := ""
		if event, err := s.events.GetByID(ctx, booking.EventID); err == nil {
			eventTitle = event.Title
		}
		s.notifier.BookingCancelled(ctx, *booking, eventTitle)
	}

	resp := s.toResponse(ctx, booking)
	return &resp, nil
}

func (s *service) GetAllBookings(ctx context.Context, query BookingListQuery) (*PaginatedBookings, error) {
	normalizeQuery(&query)
	items, total, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.paginated(ctx, items, total, query), nil
}

func (s *service) MarkAttended(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != StatusConfirmed {
		return nil, ErrCannotAttend
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusAttended, nil); err != nil {
		return nil, err
	}

	booking.Status = StatusAttended
	resp := s.toResponse(ctx, booking)
	return &resp, nil
}

func (s *service) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

func (s *service) paginated(ctx context.Context, items []Booking, total int64, query BookingListQuery) *PaginatedBookings {
	responses := make([]BookingResponse, 0, len(items))
	for i := range items {
		responses = append(responses, s.toResponse(ctx, &items[i]))
	}
	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}
}

func (s *service) toResponse(ctx context.Context, booking *Booking) BookingResponse {
	resp := booking.ToResponse()
	if event, err := s.events.GetByID(ctx, booking.EventID); err == nil {
		eventResp := event.ToResponse()
		resp.Event = &eventResp
	}
	return resp
}

func (s *service) invalidateEventCaches(ctx context.Context) {
	// Seat counts changed, so every cached event payload is stale.
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_EVENT_ALL); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to invalidate event caches", err, nil)
	}
	_ = s.cache.Delete(ctx, constants.CACHE_KEY_ADMIN_STATS)
}

const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I

// generateBookingRef builds a reference like EHB-20260830-K4PZQN.
func generateBookingRef() (string, error) {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(refAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		suffix[i] = refAlphabet[n.Int64()]
	}
	return fmt.Sprintf("EHB-%s-%s", time.Now().UTC().Format("20060102"), suffix), nil
}

// maxPage bounds pagination offsets; any page past it is empty anyway.
const maxPage = 1_000_000

func normalizeQuery(query *BookingListQuery) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Page > maxPage {
		query.Page = maxPage
	}
	if query.Limit < 1 {
		query.Limit = 10
	}
	if query.Limit > 100 {
		query.Limit = 100
	}
}
