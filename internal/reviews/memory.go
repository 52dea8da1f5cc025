package reviews

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps reviews in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Review
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]Review)}
}

func (m *MemoryRepository) Create(_ context.Context, review Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.CustomerID == review.CustomerID && existing.RestaurantID == review.RestaurantID {
			return ErrAlreadyReviewed
		}
	}
	m.byID[review.ID] = review
	return nil
}

func (m *MemoryRepository) ByID(_ context.Context, reviewID string) (Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	review, exists := m.byID[reviewID]
	if !exists {
		return Review{}, ErrReviewNotFound
	}
	return review, nil
}

func (m *MemoryRepository) ListByRestaurant(_ context.Context, restaurantID string) ([]Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Review, 0)
	for _, review := range m.byID {
		if review.RestaurantID == restaurantID {
			items = append(items, review)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (m *MemoryRepository) ByCustomerAndRestaurant(_ context.Context, customerID, restaurantID string) (Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, review := range m.byID {
		if review.CustomerID == customerID && review.RestaurantID == restaurantID {
			return review, nil
		}
	}
	return Review{}, ErrReviewNotFound
}

func (m *MemoryRepository) Update(_ context.Context, review Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[review.ID]; !exists {
		return ErrReviewNotFound
	}
	m.byID[review.ID] = review
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, reviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[reviewID]; !exists {
		return ErrReviewNotFound
	}
	delete(m.byID, reviewID)
	return nil
}
