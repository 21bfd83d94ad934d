package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/store"
)

// fakePersister records snapshot writes and serves canned loads.
type fakePersister struct {
	mu           sync.Mutex
	eventSaves   int
	bookingSaves int
	lastEvents   []events.Event
	lastBookings []bookings.Booking

	loadEvents   []events.Event
	loadBookings []bookings.Booking
}

func (p *fakePersister) SaveEvents(_ context.Context, items []events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventSaves++
	p.lastEvents = items
	return nil
}

func (p *fakePersister) SaveBookings(_ context.Context, items []bookings.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookingSaves++
	p.lastBookings = items
	return nil
}

func (p *fakePersister) LoadEvents(context.Context) ([]events.Event, error) {
	return p.loadEvents, nil
}

func (p *fakePersister) LoadBookings(context.Context) ([]bookings.Booking, error) {
	return p.loadBookings, nil
}

func newEvent(title string, seats int) events.Event {
	return events.Event{
		ID:             uuid.New(),
		Title:          title,
		Venue:          "Test Venue",
		CategorySlug:   "music",
		Date:           time.Now().UTC().AddDate(0, 1, 0),
		Price:          20,
		Capacity:       seats,
		AvailableSeats: seats,
	}
}

func newBooking(eventID, userID uuid.UUID, qty int) bookings.Booking {
	return bookings.Booking{
		ID:         uuid.New(),
		UserID:     userID,
		EventID:    eventID,
		Quantity:   qty,
		TotalPrice: 20 * float64(qty),
		Status:     bookings.StatusConfirmed,
		BookingRef: "EHB-20260901-TEST01",
	}
}

func TestStoreLoadHydratesCollections(t *testing.T) {
	e := newEvent("Loaded Event", 10)
	b := newBooking(e.ID, uuid.New(), 1)
	p := &fakePersister{loadEvents: []events.Event{e}, loadBookings: []bookings.Booking{b}}

	s := store.New(p, nil)
	require.NoError(t, s.Load(context.Background()))

	got, ok := s.GetEvent(e.ID)
	require.True(t, ok)
	assert.Equal(t, "Loaded Event", got.Title)

	gotBooking, ok := s.GetBooking(b.ID)
	require.True(t, ok)
	assert.Equal(t, e.ID, gotBooking.EventID)
}

func TestStorePutEventPersistsSnapshot(t *testing.T) {
	p := &fakePersister{}
	s := store.New(p, nil)

	s.PutEvent(context.Background(), newEvent("First", 10))
	s.PutEvent(context.Background(), newEvent("Second", 20))

	assert.Equal(t, 2, p.eventSaves)
	assert.Len(t, p.lastEvents, 2)
}

func TestStoreUpdateEventNotFound(t *testing.T) {
	s := store.New(&fakePersister{}, nil)

	_, err := s.UpdateEvent(context.Background(), uuid.New(), func(*events.Event) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreUpdateEventRejectedByCallback(t *testing.T) {
	p := &fakePersister{}
	s := store.New(p, nil)
	e := newEvent("Guarded", 10)
	s.PutEvent(context.Background(), e)
	savesBefore := p.eventSaves

	_, err := s.UpdateEvent(context.Background(), e.ID, func(ev *events.Event) error {
		ev.AvailableSeats = -1
		return assert.AnError
	})
	require.Error(t, err)

	// Rejected update leaves state and snapshot untouched
	got, _ := s.GetEvent(e.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	assert.Equal(t, savesBefore, p.eventSaves)
}

func TestStoreDeleteEventCascadesBookings(t *testing.T) {
	p := &fakePersister{}
	s := store.New(p, nil)
	ctx := context.Background()

	e := newEvent("Doomed", 10)
	other := newEvent("Survivor", 10)
	s.PutEvent(ctx, e)
	s.PutEvent(ctx, other)

	doomed := newBooking(e.ID, uuid.New(), 2)
	kept := newBooking(other.ID, uuid.New(), 1)
	s.PutBooking(ctx, doomed)
	s.PutBooking(ctx, kept)

	require.NoError(t, s.DeleteEvent(ctx, e.ID))

	_, ok := s.GetEvent(e.ID)
	assert.False(t, ok)
	_, ok = s.GetBooking(doomed.ID)
	assert.False(t, ok, "booking for deleted event must be gone")
	_, ok = s.GetBooking(kept.ID)
	assert.True(t, ok, "bookings for other events survive")

	// Both snapshots were rewritten by the single delete
	assert.Len(t, p.lastEvents, 1)
	assert.Len(t, p.lastBookings, 1)
}

func TestStoreDeleteEventNotFound(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	assert.ErrorIs(t, s.DeleteEvent(context.Background(), uuid.New()), store.ErrNotFound)
}

func TestStoreSubscribeReceivesChanges(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var changes []store.Change
	s.Subscribe(func(c store.Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	e := newEvent("Watched", 10)
	s.PutEvent(ctx, e)
	b := newBooking(e.ID, uuid.New(), 1)
	s.PutBooking(ctx, b)
	require.NoError(t, s.DeleteEvent(ctx, e.ID))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 4)
	assert.Equal(t, store.Change{Collection: "events", Op: store.OpCreate, ID: e.ID}, changes[0])
	assert.Equal(t, store.Change{Collection: "bookings", Op: store.OpCreate, ID: b.ID}, changes[1])
	// Cascade reports the booking deletions before the event deletion
	assert.Equal(t, store.Change{Collection: "bookings", Op: store.OpDelete, ID: b.ID}, changes[2])
	assert.Equal(t, store.Change{Collection: "events", Op: store.OpDelete, ID: e.ID}, changes[3])
}

func TestStoreDeleteBookingsByUser(t *testing.T) {
	p := &fakePersister{}
	s := store.New(p, nil)
	ctx := context.Background()

	userID := uuid.New()
	e := newEvent("Event", 10)
	s.PutEvent(ctx, e)
	mine := newBooking(e.ID, userID, 1)
	theirs := newBooking(e.ID, uuid.New(), 1)
	s.PutBooking(ctx, mine)
	s.PutBooking(ctx, theirs)

	s.DeleteBookingsByUser(ctx, userID)

	_, ok := s.GetBooking(mine.ID)
	assert.False(t, ok)
	_, ok = s.GetBooking(theirs.ID)
	assert.True(t, ok)
}

func TestEventRepositoryAdjustSeats(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	repo := store.NewEventRepository(s)
	ctx := context.Background()

	e := newEvent("Limited", 5)
	s.PutEvent(ctx, e)

	require.NoError(t, repo.AdjustSeats(ctx, e.ID, -3))
	got, _ := s.GetEvent(e.ID)
	assert.Equal(t, 2, got.AvailableSeats)

	// Overdrawing fails and leaves the count unchanged
	err := repo.AdjustSeats(ctx, e.ID, -3)
	assert.ErrorIs(t, err, events.ErrNotEnoughSeats)
	got, _ = s.GetEvent(e.ID)
	assert.Equal(t, 2, got.AvailableSeats)

	// Restoring clamps at capacity
	require.NoError(t, repo.AdjustSeats(ctx, e.ID, 100))
	got, _ = s.GetEvent(e.ID)
	assert.Equal(t, 5, got.AvailableSeats)
}

func TestEventRepositoryUpdateAppliesPatch(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	repo := store.NewEventRepository(s)
	ctx := context.Background()

	e := newEvent("Old Title", 10)
	s.PutEvent(ctx, e)

	updated, err := repo.Update(ctx, e.ID, map[string]interface{}{
		"title": "New Title",
		"price": 35.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, 35.0, updated.Price)
	// Untouched fields survive the patch
	assert.Equal(t, 10, updated.AvailableSeats)
}

func TestEventRepositoryUpdateCategorySlug(t *testing.T) {
	p := &fakePersister{}
	s := store.New(p, nil)
	repo := store.NewEventRepository(s)
	ctx := context.Background()

	categoryID := uuid.New()
	renamed := newEvent("Concert", 10)
	renamed.CategoryID = categoryID
	other := newEvent("Workshop", 10)
	s.PutEvent(ctx, renamed)
	s.PutEvent(ctx, other)
	saved := p.eventSaves

	require.NoError(t, repo.UpdateCategorySlug(ctx, categoryID, "live-music"))

	got, _ := s.GetEvent(renamed.ID)
	assert.Equal(t, "live-music", got.CategorySlug)
	untouched, _ := s.GetEvent(other.ID)
	assert.Equal(t, "music", untouched.CategorySlug)
	assert.Equal(t, saved+1, p.eventSaves, "bulk rewrite is one snapshot")
}

func TestEventRepositoryGetAllFiltersAndPaginates(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	repo := store.NewEventRepository(s)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		e := newEvent("Concert", 10)
		e.Date = time.Now().UTC().AddDate(0, 0, i+1)
		s.PutEvent(ctx, e)
	}
	odd := newEvent("Workshop", 10)
	odd.CategorySlug = "technology"
	s.PutEvent(ctx, odd)

	items, total, err := repo.GetAll(ctx, events.EventListQuery{Category: "music", Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Len(t, items, 2)
}

func TestBookingRepositoryBuckets(t *testing.T) {
	s := store.New(&fakePersister{}, nil)
	repo := store.NewBookingRepository(s)
	ctx := context.Background()
	userID := uuid.New()

	future := newEvent("Future", 10)
	past := newEvent("Past", 10)
	past.Date = time.Now().UTC().AddDate(0, 0, -7)
	s.PutEvent(ctx, future)
	s.PutEvent(ctx, past)

	upcoming := newBooking(future.ID, userID, 1)
	attended := newBooking(past.ID, userID, 1)
	attended.Status = bookings.StatusAttended
	cancelled := newBooking(future.ID, userID, 1)
	cancelled.Status = bookings.StatusCancelled
	s.PutBooking(ctx, upcoming)
	s.PutBooking(ctx, attended)
	s.PutBooking(ctx, cancelled)

	items, total, err := repo.GetByUserID(ctx, userID, bookings.BookingListQuery{Bucket: "upcoming", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, upcoming.ID, items[0].ID)

	items, _, err = repo.GetByUserID(ctx, userID, bookings.BookingListQuery{Bucket: "past", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, attended.ID, items[0].ID)

	items, _, err = repo.GetByUserID(ctx, userID, bookings.BookingListQuery{Bucket: "cancelled", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cancelled.ID, items[0].ID)
}
