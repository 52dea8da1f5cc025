package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

const maxCommentLength = 2000

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("comment too long")
	ErrAlreadyReviewed = errors.New("restaurant already reviewed by customer")
)

// Review is a customer's rating of a restaurant. CustomerID owns it.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	CustomerID   string    `json:"customer_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary aggregates the ratings of one restaurant.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type UpdateInput struct {
	Rating  *int
	Comment *string
}

// Repository persists reviews. ByID, Update and Delete report a missing
// record with ErrReviewNotFound; Create reports a duplicate customer and
// restaurant pair with ErrAlreadyReviewed.
type Repository interface {
	Create(ctx context.Context, review Review) error
	ByID(ctx context.Context, reviewID string) (Review, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Review, error)
	ByCustomerAndRestaurant(ctx context.Context, customerID, restaurantID string) (Review, error)
	Update(ctx context.Context, review Review) error
	Delete(ctx context.Context, reviewID string) error
}

type RestaurantLookup interface {
	Get(ctx context.Context, restaurantID string) (restaurants.Restaurant, error)
}

type Service struct {
	repo        Repository
	restaurants RestaurantLookup
	now         func() time.Time
}

func NewService(repo Repository, restaurantLookup RestaurantLookup) *Service {
	return &Service{
		repo:        repo,
		restaurants: restaurantLookup,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, customerID, restaurantID string, rating int, comment string) (Review, error) {
	if err := validateRating(rating); err != nil {
		return Review{}, err
	}
	comment, err := normalizeComment(comment)
	if err != nil {
		return Review{}, err
	}
	if _, err := s.restaurants.Get(ctx, restaurantID); err != nil {
		return Review{}, err
	}

	now := s.now()
	review := Review{
		ID:           identifier.New("rev"),
		RestaurantID: restaurantID,
		CustomerID:   customerID,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return Review{}, err
	}
	return review, nil
}

func (s *Service) Get(ctx context.Context, reviewID string) (Review, error) {
	return s.repo.ByID(ctx, reviewID)
}

func (s *Service) ListForRestaurant(ctx context.Context, restaurantID string) ([]Review, error) {
	return s.repo.ListByRestaurant(ctx, restaurantID)
}

// ForCustomer returns the customer's review of a restaurant, if any.
func (s *Service) ForCustomer(ctx context.Context, customerID, restaurantID string) (Review, bool, error) {
	review, err := s.repo.ByCustomerAndRestaurant(ctx, customerID, restaurantID)
	if errors.Is(err, ErrReviewNotFound) {
		return Review{}, false, nil
	}
	if err != nil {
		return Review{}, false, err
	}
	return review, true, nil
}

func (s *Service) Update(ctx context.Context, review Review, input UpdateInput) (Review, error) {
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return Review{}, err
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		comment, err := normalizeComment(*input.Comment)
		if err != nil {
			return Review{}, err
		}
		review.Comment = comment
	}
	review.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, review); err != nil {
		return Review{}, err
	}
	return review, nil
}

func (s *Service) Delete(ctx context.Context, reviewID string) error {
	return s.repo.Delete(ctx, reviewID)
}

func (s *Service) Summary(ctx context.Context, restaurantID string) (Summary, error) {
	items, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Summarize computes count and average rating, rounded to one decimal.
func Summarize(items []Review) Summary {
	if len(items) == 0 {
		return Summary{}
	}
	total := 0
	for _, review := range items {
		total += review.Rating
	}
	average := float64(total) / float64(len(items))
	return Summary{
		Count:   len(items),
		Average: float64(int(average*10+0.5)) / 10,
	}
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func normalizeComment(comment string) (string, error) {
	trimmed := strings.TrimSpace(comment)
	if len(trimmed) > maxCommentLength {
		return "", ErrCommentTooLong
	}
	return trimmed, nil
}
