package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/pkg/logger"
)

var ErrNotFound = errors.New("record not found")

// Op names a mutation kind carried in a Change notification.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes a committed mutation. Subscribers receive it after
// the new state is visible and the snapshot write has been attempted.
type Change struct {
	Collection string // "events" or "bookings"
	Op         Op
	ID         uuid.UUID
}

// Persister writes and reads full-collection snapshots. The store calls
// Save* after every commit; failures are logged, not surfaced, since the
// in-memory state remains the source of truth.
type Persister interface {
	SaveEvents(ctx context.Context, items []events.Event) error
	SaveBookings(ctx context.Context, items []bookings.Booking) error
	LoadEvents(ctx context.Context) ([]events.Event, error)
	LoadBookings(ctx context.Context) ([]bookings.Booking, error)
}

// Store holds the canonical event and booking collections for the
// in-memory backend. All reads hand out copies; all writes go through
// commit, which persists and notifies under a consistent snapshot.
// Concurrent writers are serialized, last write wins.
type Store struct {
	mu       sync.RWMutex
	events   map[uuid.UUID]events.Event
	bookings map[uuid.UUID]bookings.Booking

	persister Persister
	log       *logger.Logger

	subMu       sync.Mutex
	subscribers []func(Change)
}

func New(persister Persister, log *logger.Logger) *Store {
	return &Store{
		events:    make(map[uuid.UUID]events.Event),
		bookings:  make(map[uuid.UUID]bookings.Booking),
		persister: persister,
		log:       log,
	}
}

// Load hydrates the store from the last snapshot. An empty or missing
// snapshot leaves the store empty; that is a valid cold start.
func (s *Store) Load(ctx context.Context) error {
	evs, err := s.persister.LoadEvents(ctx)
	if err != nil {
		return err
	}
	bks, err := s.persister.LoadBookings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range evs {
		s.events[e.ID] = e
	}
	for _, b := range bks {
		s.bookings[b.ID] = b
	}
	return nil
}

// Subscribe registers a callback invoked after every committed change.
// Callbacks run synchronously on the mutating goroutine and must not
// call back into the store's mutators.
func (s *Store) Subscribe(fn func(Change)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(changes ...Change) {
	s.subMu.Lock()
	subs := make([]func(Change), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, change := range changes {
		for _, fn := range subs {
			fn(change)
		}
	}
}

// --- event accessors ---

func (s *Store) GetEvent(id uuid.UUID) (events.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}

func (s *Store) ListEvents() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out
}

func (s *Store) PutEvent(ctx context.Context, e events.Event) {
	s.mu.Lock()
	_, existed := s.events[e.ID]
	s.events[e.ID] = e
	snap := s.eventSlice()
	s.mu.Unlock()

	s.persistEvents(ctx, snap)
	op := OpCreate
	if existed {
		op = OpUpdate
	}
	s.notify(Change{Collection: "events", Op: op, ID: e.ID})
}

// UpdateEvent applies fn to a copy of the stored event and commits the
// result if fn succeeds. fn runs under the write lock and must be fast.
func (s *Store) UpdateEvent(ctx context.Context, id uuid.UUID, fn func(e *events.Event) error) (events.Event, error) {
	s.mu.Lock()
	e, ok := s.events[id]
	if !ok {
		s.mu.Unlock()
		return events.Event{}, ErrNotFound
	}
	if err := fn(&e); err != nil {
		s.mu.Unlock()
		return events.Event{}, err
	}
	s.events[id] = e
	snap := s.eventSlice()
	s.mu.Unlock()

	s.persistEvents(ctx, snap)
	s.notify(Change{Collection: "events", Op: OpUpdate, ID: id})
	return e, nil
}

// DeleteEvent removes the event and every booking that references it in
// a single commit, so observers never see a booking for a missing event.
// UpdateEventsWhere applies fn to every event matching the predicate in a
// single commit and returns how many were touched.
func (s *Store) UpdateEventsWhere(ctx context.Context, match func(events.Event) bool, fn func(e *events.Event)) int {
	s.mu.Lock()
	var touched []uuid.UUID
	for id, e := range s.events {
		if !match(e) {
			continue
		}
		fn(&e)
		s.events[id] = e
		touched = append(touched, id)
	}
	if len(touched) == 0 {
		s.mu.Unlock()
		return 0
	}
	snap := s.eventSlice()
	s.mu.Unlock()

	s.persistEvents(ctx, snap)
	changes := make([]Change, len(touched))
	for i, id := range touched {
		changes[i] = Change{Collection: "events", Op: OpUpdate, ID: id}
	}
	s.notify(changes...)
	return len(touched)
}

func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.events[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.events, id)

	var removed []uuid.UUID
	for bid, b := range s.bookings {
		if b.EventID == id {
			delete(s.bookings, bid)
			removed = append(removed, bid)
		}
	}
	evSnap := s.eventSlice()
	bkSnap := s.bookingSlice()
	s.mu.Unlock()

	s.persistEvents(ctx, evSnap)
	s.persistBookings(ctx, bkSnap)

	changes := make([]Change, 0, len(removed)+1)
	for _, bid := range removed {
		changes = append(changes, Change{Collection: "bookings", Op: OpDelete, ID: bid})
	}
	changes = append(changes, Change{Collection: "events", Op: OpDelete, ID: id})
	s.notify(changes...)
	return nil
}

// --- booking accessors ---

func (s *Store) GetBooking(id uuid.UUID) (bookings.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) ListBookings() []bookings.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bookings.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out
}

func (s *Store) PutBooking(ctx context.Context, b bookings.Booking) {
	s.mu.Lock()
	_, existed := s.bookings[b.ID]
	s.bookings[b.ID] = b
	snap := s.bookingSlice()
	s.mu.Unlock()

	s.persistBookings(ctx, snap)
	op := OpCreate
	if existed {
		op = OpUpdate
	}
	s.notify(Change{Collection: "bookings", Op: op, ID: b.ID})
}

func (s *Store) UpdateBooking(ctx context.Context, id uuid.UUID, fn func(b *bookings.Booking) error) (bookings.Booking, error) {
	s.mu.Lock()
	b, ok := s.bookings[id]
	if !ok {
		s.mu.Unlock()
		return bookings.Booking{}, ErrNotFound
	}
	if err := fn(&b); err != nil {
		s.mu.Unlock()
		return bookings.Booking{}, err
	}
	s.bookings[id] = b
	snap := s.bookingSlice()
	s.mu.Unlock()

	s.persistBookings(ctx, snap)
	s.notify(Change{Collection: "bookings", Op: OpUpdate, ID: id})
	return b, nil
}

func (s *Store) DeleteBookingsByUser(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	var removed []uuid.UUID
	for id, b := range s.bookings {
		if b.UserID == userID {
			delete(s.bookings, id)
			removed = append(removed, id)
		}
	}
	snap := s.bookingSlice()
	s.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	s.persistBookings(ctx, snap)
	changes := make([]Change, 0, len(removed))
	for _, id := range removed {
		changes = append(changes, Change{Collection: "bookings", Op: OpDelete, ID: id})
	}
	s.notify(changes...)
}

// --- snapshot plumbing ---

func (s *Store) eventSlice() []events.Event {
	out := make([]events.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out
}

func (s *Store) bookingSlice() []bookings.Booking {
	out := make([]bookings.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out
}

func (s *Store) persistEvents(ctx context.Context, snap []events.Event) {
	if err := s.persister.SaveEvents(ctx, snap); err != nil && s.log != nil {
		s.log.ErrorWithContext(ctx, "Failed to persist event snapshot", err, nil)
	}
}

func (s *Store) persistBookings(ctx context.Context, snap []bookings.Booking) {
	if err := s.persister.SaveBookings(ctx, snap); err != nil && s.log != nil {
		s.log.ErrorWithContext(ctx, "Failed to persist booking snapshot", err, nil)
	}
}
