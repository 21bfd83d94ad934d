package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eventhub/internal/categories"
	"eventhub/internal/shared/constants"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

var ErrCapacityBelowBooked = errors.New("capacity cannot drop below booked seats")

// maxPage bounds pagination offsets; any page past it is empty anyway.
const maxPage = 1_000_000

type Service interface {
	CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	GetEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	GetEventsByCategory(ctx context.Context, slugName string, query EventListQuery) (*PaginatedEvents, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error)
	GetFeaturedEvents(ctx context.Context, limit int) ([]EventResponse, error)
	UpdateEvent(ctx context.Context, adminID uuid.UUID, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetStats(ctx context.Context) (*Stats, error)

	// CategorySlugChanged satisfies categories.EventSync.
	CategorySlugChanged(ctx context.Context, categoryID uuid.UUID, newSlug string) error

	SetCancellationNotifier(n CancellationNotifier)
}

// CancellationNotifier tells every booking holder of a deleted event that
// it was cancelled. Implemented by the bookings service; wired after
// construction to keep the dependency one-directional.
type CancellationNotifier interface {
	EventCancelled(ctx context.Context, eventID uuid.UUID, eventTitle string)
}

type service struct {
	repo          Repository
	categories    categories.Service
	cache         cache.Service
	log           *logger.Logger
	cancellations CancellationNotifier
}

func (s *service) SetCancellationNotifier(n CancellationNotifier) {
	s.cancellations = n
}

func NewService(repo Repository, categorySvc categories.Service, cacheSvc cache.Service, log *logger.Logger) Service {
	return &service{
		repo:       repo,
		categories: categorySvc,
		cache:      cacheSvc,
		log:        log,
	}
}

func (s *service) CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	category, err := s.categories.ResolveSlug(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	event := &Event{
		Title:          req.Title,
		Description:    req.Description,
		Venue:          req.Venue,
		CategoryID:     category.ID,
		CategorySlug:   category.Slug,
		Date:           req.Date.UTC(),
		TimeRange:      req.TimeRange,
		Price:          req.Price,
		Capacity:       req.Capacity,
		AvailableSeats: req.Capacity,
		Featured:       req.Featured,
		ImageURL:       req.ImageURL,
		CreatedBy:      adminID,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.invalidateEventCaches(ctx)
	s.log.LogEventCreated(ctx, event.ID.String(), adminID.String())

	resp := s.toResponse(ctx, event)
	return &resp, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	cacheKey := constants.BuildEventDetailKey(id.String())
	var cached EventResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, event)
	_ = s.cache.Set(ctx, cacheKey, resp, constants.TTL_EVENT_DETAIL)
	return &resp, nil
}

func (s *service) GetEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	normalizeQuery(&query)

	cacheKey := constants.BuildEventListKey(query.Page, query.Limit, fingerprint(query))
	var cached PaginatedEvents
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	items, total, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	result := &PaginatedEvents{
		Events:     s.toResponses(ctx, items),
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}

	_ = s.cache.Set(ctx, cacheKey, result, constants.TTL_EVENT_LIST)
	return result, nil
}

func (s *service) GetEventsByCategory(ctx context.Context, slugName string, query EventListQuery) (*PaginatedEvents, error) {
	category, err := s.categories.ResolveSlug(ctx, slugName)
	if err != nil {
		return nil, err
	}
	query.Category = category.Slug
	return s.GetEvents(ctx, query)
}

func (s *service) GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	cacheKey := fmt.Sprintf("%s:limit:%d", constants.CACHE_KEY_EVENTS_UPCOMING, limit)
	var cached []EventResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	items, err := s.repo.GetUpcoming(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := s.toResponses(ctx, items)
	_ = s.cache.Set(ctx, cacheKey, resp, constants.TTL_EVENT_UPCOMING)
	return resp, nil
}

func (s *service) GetFeaturedEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 6
	}
	cacheKey := fmt.Sprintf("%s:limit:%d", constants.CACHE_KEY_EVENTS_FEATURED, limit)
	var cached []EventResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	items, err := s.repo.GetFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := s.toResponses(ctx, items)
	_ = s.cache.Set(ctx, cacheKey, resp, constants.TTL_EVENT_FEATURED)
	return resp, nil
}

func (s *service) UpdateEvent(ctx context.Context, adminID uuid.UUID, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_by": adminID}

	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.Category != nil {
		category, err := s.categories.ResolveSlug(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = category.ID
		updates["category_slug"] = category.Slug
	}
	if req.Date != nil {
		updates["date"] = req.Date.UTC()
	}
	if req.TimeRange != nil {
		updates["time_range"] = *req.TimeRange
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Capacity != nil {
		// Booked seats survive a resize; available shrinks or grows by
		// the capacity delta.
		booked := current.Capacity - current.AvailableSeats
		if *req.Capacity < booked {
			return nil, ErrCapacityBelowBooked
		}
		updates["capacity"] = *req.Capacity
		updates["available_seats"] = *req.Capacity - booked
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateEventCaches(ctx)
	resp := s.toResponse(ctx, event)
	return &resp, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Holders are told before the cascade removes their bookings.
	if s.cancellations != nil {
		s.cancellations.EventCancelled(ctx, event.ID, event.Title)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateEventCaches(ctx)
	return nil
}

func (s *service) CategorySlugChanged(ctx context.Context, categoryID uuid.UUID, newSlug string) error {
	if err := s.repo.UpdateCategorySlug(ctx, categoryID, newSlug); err != nil {
		return err
	}
	s.invalidateEventCaches(ctx)
	return nil
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	var cached Stats
	if err := s.cache.Get(ctx, constants.CACHE_KEY_ADMIN_STATS, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, constants.CACHE_KEY_ADMIN_STATS, stats, constants.TTL_ADMIN_STATS)
	return stats, nil
}

func (s *service) invalidateEventCaches(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_EVENT_ALL); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to invalidate event caches", err, nil)
	}
	_ = s.cache.Delete(ctx, constants.CACHE_KEY_ADMIN_STATS)
}

func (s *service) toResponse(ctx context.Context, event *Event) EventResponse {
	resp := event.ToResponse()
	if category, err := s.categories.ResolveID(ctx, event.CategoryID); err == nil {
		resp.Category = CategoryInfo{
			ID:    category.ID.String(),
			Name:  category.Name,
			Slug:  category.Slug,
			Color: category.Color,
		}
	}
	return resp
}

func (s *service) toResponses(ctx context.Context, items []Event) []EventResponse {
	// Resolve each category once per page
	infos := make(map[uuid.UUID]CategoryInfo)
	out := make([]EventResponse, 0, len(items))
	for i := range items {
		resp := items[i].ToResponse()
		info, ok := infos[items[i].CategoryID]
		if !ok {
			if category, err := s.categories.ResolveID(ctx, items[i].CategoryID); err == nil {
				info = CategoryInfo{
					ID:    category.ID.String(),
					Name:  category.Name,
					Slug:  category.Slug,
					Color: category.Color,
				}
			}
			infos[items[i].CategoryID] = info
		}
		resp.Category = info
		out = append(out, resp)
	}
	return out
}

func normalizeQuery(query *EventListQuery) {
	if query.Page < 1 {
		query.Page = 1
	}
	// Keeps the page*limit offset well away from integer overflow.
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

// fingerprint hashes the filter portion of the query so each distinct
// filter combination gets its own cache entry.
func fingerprint(query EventListQuery) string {
	raw := fmt.Sprintf("%s|%s|%s|%g|%g|%s|%s|%s|%s|%s",
		query.Search, query.Category, query.Status,
		query.PriceMin, query.PriceMax,
		query.Date, query.DateFrom, query.DateTo,
		query.Sort, query.Order,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
