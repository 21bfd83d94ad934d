package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"eventhub/internal/shared/constants"
	"eventhub/pkg/cache"
)

var (
	ErrCategoryNameTaken = errors.New("a category with this name already exists")
	ErrCategoryInUse     = errors.New("category still has events assigned")
)

type Service interface {
	CreateCategory(ctx context.Context, adminID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error)
	GetCategoryBySlug(ctx context.Context, slugName string) (*CategoryResponse, error)
	GetAllCategories(ctx context.Context) ([]CategoryResponse, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// Lookup helpers used by the events service
	ResolveSlug(ctx context.Context, slugName string) (*Category, error)
	ResolveID(ctx context.Context, id uuid.UUID) (*Category, error)

	SetEventSync(sync EventSync)
}

// EventSync propagates a category slug change to the denormalized copy
// each event carries. Implemented by the events service; wired after
// construction to keep the dependency one-directional.
type EventSync interface {
	CategorySlugChanged(ctx context.Context, categoryID uuid.UUID, newSlug string) error
}

type service struct {
	repo   Repository
	cache  cache.Service
	events EventSync
}

func NewService(repo Repository, cacheSvc cache.Service) Service {
	return &service{repo: repo, cache: cacheSvc}
}

func (s *service) SetEventSync(sync EventSync) {
	s.events = sync
}

func (s *service) CreateCategory(ctx context.Context, adminID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	taken, err := s.repo.NameExists(ctx, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if taken {
		return nil, ErrCategoryNameTaken
	}

	category := &Category{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		CreatedBy:   adminID,
	}
	if category.Color == "" {
		category.Color = "#6B7280"
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCache(ctx)
	response := category.ToResponse()
	return &response, nil
}

func (s *service) GetCategoryBySlug(ctx context.Context, slugName string) (*CategoryResponse, error) {
	category, err := s.repo.GetBySlug(ctx, slugName)
	if err != nil {
		return nil, err
	}

	response := category.ToResponse()
	if count, err := s.repo.CountEvents(ctx, category.ID); err == nil {
		response.EventCount = count
	}

	return &response, nil
}

func (s *service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	var cached []CategoryResponse
	if err := s.cache.Get(ctx, constants.CACHE_KEY_CATEGORIES, &cached); err == nil {
		return cached, nil
	}

	result, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	responses := make([]CategoryResponse, len(result))
	for i, category := range result {
		response := category.ToResponse()
		if count, err := s.repo.CountEvents(ctx, category.ID); err == nil {
			response.EventCount = count
		}
		responses[i] = response
	}

	_ = s.cache.Set(ctx, constants.CACHE_KEY_CATEGORIES, responses, constants.TTL_CATEGORY_LIST)
	return responses, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		taken, err := s.repo.NameExists(ctx, *req.Name, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check category name: %w", err)
		}
		if taken {
			return nil, ErrCategoryNameTaken
		}
		updates["name"] = *req.Name
		updates["slug"] = slug.Make(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	updates["updated_by"] = adminID
	updates["updated_at"] = time.Now()

	category, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	// A rename changes the slug, and every event denormalizes it.
	if s.events != nil && category.Slug != current.Slug {
		if err := s.events.CategorySlugChanged(ctx, id, category.Slug); err != nil {
			return nil, fmt.Errorf("failed to propagate category slug: %w", err)
		}
	}

	s.invalidateCache(ctx)
	response := category.ToResponse()
	return &response, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count category events: %w", err)
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *service) invalidateCache(ctx context.Context) {
	_ = s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_CATEGORIES)
}

func (s *service) ResolveSlug(ctx context.Context, slugName string) (*Category, error) {
	return s.repo.GetBySlug(ctx, slugName)
}

func (s *service) ResolveID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}
