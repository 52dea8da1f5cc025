package restaurants

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps restaurants in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Restaurant
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]Restaurant)}
}

func (m *MemoryRepository) Create(_ context.Context, restaurant Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[restaurant.ID] = restaurant
	return nil
}

func (m *MemoryRepository) ByID(_ context.Context, restaurantID string) (Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	restaurant, exists := m.byID[restaurantID]
	if !exists {
		return Restaurant{}, ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (m *MemoryRepository) List(_ context.Context, filter ListFilter) ([]Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Restaurant, 0, len(m.byID))
	for _, restaurant := range m.byID {
		if filter.Cuisine != "" && restaurant.Cuisine != filter.Cuisine {
			continue
		}
		if filter.StaffID != "" && restaurant.StaffID != filter.StaffID {
			continue
		}
		items = append(items, restaurant)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (m *MemoryRepository) Update(_ context.Context, restaurant Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[restaurant.ID]; !exists {
		return ErrRestaurantNotFound
	}
	m.byID[restaurant.ID] = restaurant
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, restaurantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[restaurantID]; !exists {
		return ErrRestaurantNotFound
	}
	delete(m.byID, restaurantID)
	return nil
}
