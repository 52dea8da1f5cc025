package restaurants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidRestaurant  = errors.New("invalid restaurant input")
)

// Restaurant is a bookable venue. StaffID is the staff member managing it.
type Restaurant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Cuisine     string    `json:"cuisine"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	StaffID     string    `json:"staff_id"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateInput struct {
	Name        string
	Cuisine     string
	Address     string
	Description string
	StaffID     string
	OwnerID     string
}

// UpdateInput carries optional changes; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Cuisine     *string
	Address     *string
	Description *string
}

type ListFilter struct {
	Cuisine string
	StaffID string
}

// Repository persists restaurants. ByID, Update and Delete report a
// missing record with ErrRestaurantNotFound.
type Repository interface {
	Create(ctx context.Context, restaurant Restaurant) error
	ByID(ctx context.Context, restaurantID string) (Restaurant, error)
	List(ctx context.Context, filter ListFilter) ([]Restaurant, error)
	Update(ctx context.Context, restaurant Restaurant) error
	Delete(ctx context.Context, restaurantID string) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	staffID := strings.TrimSpace(input.StaffID)
	if name == "" || staffID == "" {
		return Restaurant{}, ErrInvalidRestaurant
	}

	now := s.now()
	restaurant := Restaurant{
		ID:          identifier.New("rst"),
		Name:        name,
		Cuisine:     normalizeCuisine(input.Cuisine),
		Address:     strings.TrimSpace(input.Address),
		Description: strings.TrimSpace(input.Description),
		StaffID:     staffID,
		OwnerID:     strings.TrimSpace(input.OwnerID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, restaurant); err != nil {
		return Restaurant{}, err
	}
	return restaurant, nil
}

func (s *Service) Get(ctx context.Context, restaurantID string) (Restaurant, error) {
	return s.repo.ByID(ctx, restaurantID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Restaurant, error) {
	filter.Cuisine = normalizeCuisine(filter.Cuisine)
	return s.repo.List(ctx, filter)
}

// Update applies input to an already fetched restaurant.
func (s *Service) Update(ctx context.Context, restaurant Restaurant, input UpdateInput) (Restaurant, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Restaurant{}, ErrInvalidRestaurant
		}
		restaurant.Name = name
	}
	if input.Cuisine != nil {
		restaurant.Cuisine = normalizeCuisine(*input.Cuisine)
	}
	if input.Address != nil {
		restaurant.Address = strings.TrimSpace(*input.Address)
	}
	if input.Description != nil {
		restaurant.Description = strings.TrimSpace(*input.Description)
	}
	restaurant.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, restaurant); err != nil {
		return Restaurant{}, err
	}
	return restaurant, nil
}

func (s *Service) Delete(ctx context.Context, restaurantID string) error {
	return s.repo.Delete(ctx, restaurantID)
}

func normalizeCuisine(cuisine string) string {
	return strings.ToLower(strings.TrimSpace(cuisine))
}
