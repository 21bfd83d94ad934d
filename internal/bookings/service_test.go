package bookings_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/shared/config"
	"eventhub/internal/store"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

// nullPersister satisfies store.Persister without touching Redis.
type nullPersister struct{}

func (nullPersister) SaveEvents(context.Context, []events.Event) error       { return nil }
func (nullPersister) SaveBookings(context.Context, []bookings.Booking) error { return nil }
func (nullPersister) LoadEvents(context.Context) ([]events.Event, error)     { return nil, nil }
func (nullPersister) LoadBookings(context.Context) ([]bookings.Booking, error) {
	return nil, nil
}

// fakeCache is a map-backed cache.Service.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string][]byte)} }

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}
func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (f *fakeCache) Delete(ctx context.Context, key string) error      { return nil }
func (f *fakeCache) DeletePattern(ctx context.Context, p string) error { return nil }
func (f *fakeCache) Exists(ctx context.Context, key string) bool       { return false }
func (f *fakeCache) Ping(ctx context.Context) error                    { return nil }

type capturedNotification struct {
	kind       string
	bookingRef string
	eventTitle string
	userID     uuid.UUID
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []capturedNotification
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, b bookings.Booking, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, capturedNotification{kind: "confirmed", bookingRef: b.BookingRef, eventTitle: title, userID: b.UserID})
}

func (f *fakeNotifier) BookingCancelled(_ context.Context, b bookings.Booking, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, capturedNotification{kind: "cancelled", bookingRef: b.BookingRef, eventTitle: title, userID: b.UserID})
}

func (f *fakeNotifier) EventCancelled(_ context.Context, userID, _ uuid.UUID, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, capturedNotification{kind: "event-cancelled", eventTitle: title, userID: userID})
}

type fixture struct {
	store    *store.Store
	events   events.Repository
	service  bookings.Service
	notifier *fakeNotifier
}

func newFixture(t *testing.T, cfg config.BookingConfig) *fixture {
	t.Helper()
	s := store.New(nullPersister{}, logger.GetDefault())
	eventRepo := store.NewEventRepository(s)
	bookingRepo := store.NewBookingRepository(s)

	svc := bookings.NewService(bookingRepo, eventRepo, newFakeCache(), cfg, logger.GetDefault())
	notifier := &fakeNotifier{}
	svc.SetNotifier(notifier)

	return &fixture{store: s, events: eventRepo, service: svc, notifier: notifier}
}

func defaultPolicy() config.BookingConfig {
	return config.BookingConfig{RestoreSeatsOnCancel: true, MaxTicketsPerBooking: 10}
}

func (f *fixture) addEvent(t *testing.T, price float64, seats int, daysAhead int) events.Event {
	t.Helper()
	e := events.Event{
		ID:             uuid.New(),
		Title:          "Test Event",
		Venue:          "Test Venue",
		CategorySlug:   "music",
		Date:           time.Now().UTC().AddDate(0, 0, daysAhead),
		Price:          price,
		Capacity:       seats,
		AvailableSeats: seats,
	}
	f.store.PutEvent(context.Background(), e)
	return e
}

var bookingRefPattern = regexp.MustCompile(`^EHB-\d{8}-[A-HJ-NP-Z2-9]{6}$`)

func TestBookTickets(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 25, 100, 30)

	booking, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
		EventID:  event.ID.String(),
		Quantity: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, booking.Quantity)
	assert.Equal(t, 75.0, booking.TotalPrice)
	assert.Equal(t, bookings.StatusConfirmed, booking.Status)
	assert.Regexp(t, bookingRefPattern, booking.BookingRef)
	require.NotNil(t, booking.Event)
	assert.Equal(t, 97, booking.Event.AvailableSeats, "seats decremented at booking time")

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "confirmed", f.notifier.calls[0].kind)
	assert.Equal(t, "Test Event", f.notifier.calls[0].eventTitle)
}

func TestBookTicketsSoldOut(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	event := f.addEvent(t, 25, 2, 30)

	_, err := f.service.BookTickets(ctx, uuid.New(), bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 2,
	})
	require.NoError(t, err)

	// The event is now sold out; the next attempt fails
	_, err = f.service.BookTickets(ctx, uuid.New(), bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, bookings.ErrEventSoldOut)
}

func TestBookTicketsNotEnoughSeats(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	event := f.addEvent(t, 25, 2, 30)

	_, err := f.service.BookTickets(context.Background(), uuid.New(), bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 5,
	})
	assert.ErrorIs(t, err, bookings.ErrNotEnoughSeats)

	// Failed booking leaves the seat count untouched
	got, _ := f.store.GetEvent(event.ID)
	assert.Equal(t, 2, got.AvailableSeats)
}

func TestBookTicketsQuantityLimit(t *testing.T) {
	f := newFixture(t, config.BookingConfig{RestoreSeatsOnCancel: true, MaxTicketsPerBooking: 4})
	event := f.addEvent(t, 25, 100, 30)

	_, err := f.service.BookTickets(context.Background(), uuid.New(), bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 5,
	})
	assert.ErrorIs(t, err, bookings.ErrTooManyTickets)
}

func TestBookTicketsPastEvent(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	event := f.addEvent(t, 25, 100, -1)

	_, err := f.service.BookTickets(context.Background(), uuid.New(), bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, bookings.ErrEventInPast)
}

func TestBookTicketsUnknownEvent(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	_, err := f.service.BookTickets(context.Background(), uuid.New(), bookings.CreateBookingRequest{
		EventID: uuid.New().String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestCancelBookingRestoresSeats(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 4,
	})
	require.NoError(t, err)

	bookingID := uuid.MustParse(booking.ID)
	cancelled, err := f.service.CancelBooking(ctx, userID, false, bookingID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	got, _ := f.store.GetEvent(event.ID)
	assert.Equal(t, 10, got.AvailableSeats, "cancelled tickets return to the pool")

	assert.Equal(t, "cancelled", f.notifier.calls[len(f.notifier.calls)-1].kind)
}

func TestCancelBookingKeepsSeatsWhenPolicyDisabled(t *testing.T) {
	f := newFixture(t, config.BookingConfig{RestoreSeatsOnCancel: false, MaxTicketsPerBooking: 10})
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 4,
	})
	require.NoError(t, err)

	_, err = f.service.CancelBooking(ctx, userID, false, uuid.MustParse(booking.ID))
	require.NoError(t, err)

	got, _ := f.store.GetEvent(event.ID)
	assert.Equal(t, 6, got.AvailableSeats)
}

func TestCancelBookingOwnershipAndState(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	owner := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, owner, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)
	bookingID := uuid.MustParse(booking.ID)

	_, err = f.service.CancelBooking(ctx, uuid.New(), false, bookingID)
	assert.ErrorIs(t, err, bookings.ErrNotBookingOwner)

	_, err = f.service.CancelBooking(ctx, owner, false, bookingID)
	require.NoError(t, err)

	_, err = f.service.CancelBooking(ctx, owner, false, bookingID)
	assert.ErrorIs(t, err, bookings.ErrAlreadyCancelled)
}

func TestAdminCanCancelAnyBooking(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	owner := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, owner, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 2,
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(ctx, uuid.New(), true, uuid.MustParse(booking.ID))
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)

	got, _ := f.store.GetEvent(event.ID)
	assert.Equal(t, 10, got.AvailableSeats)
}

func TestGetBookingAccessControl(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	owner := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, owner, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)
	bookingID := uuid.MustParse(booking.ID)

	_, err = f.service.GetBooking(ctx, owner, false, bookingID)
	assert.NoError(t, err)

	_, err = f.service.GetBooking(ctx, uuid.New(), false, bookingID)
	assert.ErrorIs(t, err, bookings.ErrNotBookingOwner)

	// Admins can read any booking
	_, err = f.service.GetBooking(ctx, uuid.New(), true, bookingID)
	assert.NoError(t, err)
}

func TestMarkAttended(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)
	bookingID := uuid.MustParse(booking.ID)

	attended, err := f.service.MarkAttended(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusAttended, attended.Status)

	// Attended bookings cannot be marked again or cancelled
	_, err = f.service.MarkAttended(ctx, bookingID)
	assert.ErrorIs(t, err, bookings.ErrCannotAttend)
	_, err = f.service.CancelBooking(ctx, userID, false, bookingID)
	assert.ErrorIs(t, err, bookings.ErrCannotCancel)
}

func TestGetUserBookingsPagination(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 10, 100, 30)

	for i := 0; i < 7; i++ {
		_, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
			EventID: event.ID.String(), Quantity: 1,
		})
		require.NoError(t, err)
	}

	page, err := f.service.GetUserBookings(ctx, userID, bookings.BookingListQuery{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Bookings, 2)
}

func TestDeleteByUserID(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	userID := uuid.New()
	event := f.addEvent(t, 10, 100, 30)

	_, err := f.service.BookTickets(ctx, userID, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteByUserID(ctx, userID))

	page, err := f.service.GetUserBookings(ctx, userID, bookings.BookingListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestGetBookingByRef(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	owner := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	booking, err := f.service.BookTickets(ctx, owner, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 2,
	})
	require.NoError(t, err)

	got, err := f.service.GetBookingByRef(ctx, owner, false, booking.BookingRef)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = f.service.GetBookingByRef(ctx, uuid.New(), false, booking.BookingRef)
	assert.ErrorIs(t, err, bookings.ErrNotBookingOwner)

	_, err = f.service.GetBookingByRef(ctx, uuid.New(), true, booking.BookingRef)
	assert.NoError(t, err)

	_, err = f.service.GetBookingByRef(ctx, owner, false, "EHB-20200101-XXXXXX")
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestEventCancelledNotifiesConfirmedHolders(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	keeper := uuid.New()
	leaver := uuid.New()
	event := f.addEvent(t, 25, 10, 30)

	_, err := f.service.BookTickets(ctx, keeper, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)

	cancelled, err := f.service.BookTickets(ctx, leaver, bookings.CreateBookingRequest{
		EventID: event.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.service.CancelBooking(ctx, leaver, false, uuid.MustParse(cancelled.ID))
	require.NoError(t, err)

	f.service.EventCancelled(ctx, event.ID, event.Title)

	var notified []uuid.UUID
	for _, call := range f.notifier.calls {
		if call.kind == "event-cancelled" {
			assert.Equal(t, event.Title, call.eventTitle)
			notified = append(notified, call.userID)
		}
	}
	require.Len(t, notified, 1, "only confirmed holders hear about the cancellation")
	assert.Equal(t, keeper, notified[0])
}
