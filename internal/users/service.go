package users

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// BookingCleaner removes a user's bookings when the account is deleted.
// Declared here to avoid a circular dependency on the bookings package.
type BookingCleaner interface {
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type Service interface {
	SetBookingCleaner(cleaner BookingCleaner)

	GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error)

	// Admin methods
	GetAllUsers(ctx context.Context, query UserListQuery) (*PaginatedUsers, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateRoleRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error
}

type service struct {
	repo    Repository
	cleaner BookingCleaner
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetBookingCleaner(cleaner BookingCleaner) {
	s.cleaner = cleaner
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	updates := make(map[string]interface{})

	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	updates["updated_at"] = time.Now()

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *service) GetAllUsers(ctx context.Context, query UserListQuery) (*PaginatedUsers, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	result, totalCount, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	responses := make([]UserResponse, len(result))
	for i, user := range result {
		responses[i] = user.ToResponse()
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(query.Limit)))

	return &PaginatedUsers{
		Users:      responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *service) UpdateUserRole(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateRoleRequest) (*UserResponse, error) {
	if id == adminID {
		return nil, errors.New("admins cannot change their own role")
	}
	if !IsValidRole(req.Role) {
		return nil, errors.New("invalid role")
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{
		"role":       Role(req.Role),
		"updated_at": time.Now(),
	})
	if err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID, adminID uuid.UUID) error {
	if id == adminID {
		return errors.New("admins cannot delete their own account")
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	// Remove the user's bookings first so deleted accounts do not hold seats.
	if s.cleaner != nil {
		if err := s.cleaner.DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user bookings: %w", err)
		}
	}

	return s.repo.Delete(ctx, id)
}
