package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/pkg/listing"
)

// eventRepository implements events.Repository on top of the Store.
type eventRepository struct {
	store *Store
}

func NewEventRepository(s *Store) events.Repository {
	return &eventRepository{store: s}
}

func (r *eventRepository) Create(ctx context.Context, event *events.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.store.PutEvent(ctx, *event)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	e, ok := r.store.GetEvent(id)
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return &e, nil
}

func (r *eventRepository) GetAll(ctx context.Context, query events.EventListQuery) ([]events.Event, int64, error) {
	page := listing.Apply(
		r.store.ListEvents(),
		events.Predicates(query),
		events.Comparator(query),
		listing.Params{Page: query.Page, PageSize: query.Limit},
	)
	return page.Items, page.TotalCount, nil
}

func (r *eventRepository) GetUpcoming(ctx context.Context, limit int) ([]events.Event, error) {
	return r.byDate(func(e events.Event) bool {
		return !e.Date.Before(time.Now().UTC())
	}, limit), nil
}

func (r *eventRepository) GetFeatured(ctx context.Context, limit int) ([]events.Event, error) {
	return r.byDate(func(e events.Event) bool {
		return e.Featured && !e.Date.Before(time.Now().UTC())
	}, limit), nil
}

func (r *eventRepository) byDate(keep listing.Predicate[events.Event], limit int) []events.Event {
	matched := listing.Filter(r.store.ListEvents(), []listing.Predicate[events.Event]{keep})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func (r *eventRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*events.Event, error) {
	e, err := r.store.UpdateEvent(ctx, id, func(e *events.Event) error {
		applyEventUpdates(e, updates)
		e.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, events.ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) UpdateCategorySlug(ctx context.Context, categoryID uuid.UUID, slugName string) error {
	now := time.Now().UTC()
	r.store.UpdateEventsWhere(ctx,
		func(e events.Event) bool { return e.CategoryID == categoryID },
		func(e *events.Event) {
			e.CategorySlug = slugName
			e.UpdatedAt = now
		})
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.DeleteEvent(ctx, id); err != nil {
		if err == ErrNotFound {
			return events.ErrEventNotFound
		}
		return err
	}
	return nil
}

func (r *eventRepository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := r.store.UpdateEvent(ctx, id, func(e *events.Event) error {
		seats := e.AvailableSeats + delta
		if seats < 0 {
			return events.ErrNotEnoughSeats
		}
		if seats > e.Capacity {
			seats = e.Capacity
		}
		e.AvailableSeats = seats
		e.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err == ErrNotFound {
		return events.ErrEventNotFound
	}
	return err
}

func (r *eventRepository) GetStats(ctx context.Context) (*events.Stats, error) {
	stats := &events.Stats{EventsByStatus: make(map[events.Availability]int64)}
	now := time.Now().UTC()

	for _, e := range r.store.ListEvents() {
		stats.TotalEvents++
		stats.EventsByStatus[e.Availability()]++
		if !e.Date.Before(now) {
			stats.UpcomingEvents++
		}
	}
	for _, b := range r.store.ListBookings() {
		if b.Status == bookings.StatusConfirmed {
			stats.TotalBookings++
			stats.TotalRevenue += b.TotalPrice
		}
	}
	return stats, nil
}

// applyEventUpdates mirrors the column-keyed patch maps the Postgres
// repository feeds to gorm. Unknown keys are ignored.
func applyEventUpdates(e *events.Event, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "title":
			if v, ok := value.(string); ok {
				e.Title = v
			}
		case "description":
			if v, ok := value.(string); ok {
				e.Description = v
			}
		case "venue":
			if v, ok := value.(string); ok {
				e.Venue = v
			}
		case "category_id":
			if v, ok := value.(uuid.UUID); ok {
				e.CategoryID = v
			}
		case "category_slug":
			if v, ok := value.(string); ok {
				e.CategorySlug = v
			}
		case "date":
			if v, ok := value.(time.Time); ok {
				e.Date = v
			}
		case "time_range":
			if v, ok := value.(string); ok {
				e.TimeRange = v
			}
		case "price":
			if v, ok := value.(float64); ok {
				e.Price = v
			}
		case "capacity":
			if v, ok := value.(int); ok {
				e.Capacity = v
			}
		case "available_seats":
			if v, ok := value.(int); ok {
				e.AvailableSeats = v
			}
		case "featured":
			if v, ok := value.(bool); ok {
				e.Featured = v
			}
		case "image_url":
			if v, ok := value.(string); ok {
				e.ImageURL = v
			}
		case "updated_by":
			if v, ok := value.(uuid.UUID); ok {
				e.UpdatedBy = &v
			}
		}
	}
}
