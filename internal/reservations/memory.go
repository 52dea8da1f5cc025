package reservations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps reservations in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Reservation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]Reservation)}
}

func (m *MemoryRepository) Create(_ context.Context, reservation Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[reservation.ID] = reservation
	return nil
}

func (m *MemoryRepository) ByID(_ context.Context, reservationID string) (Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reservation, exists := m.byID[reservationID]
	if !exists {
		return Reservation{}, ErrReservationNotFound
	}
	return reservation, nil
}

func (m *MemoryRepository) ListByUser(_ context.Context, userID string) ([]Reservation, error) {
	return m.filter(func(r Reservation) bool { return r.UserID == userID }), nil
}

func (m *MemoryRepository) ListByRestaurant(_ context.Context, restaurantID string) ([]Reservation, error) {
	return m.filter(func(r Reservation) bool { return r.RestaurantID == restaurantID }), nil
}

func (m *MemoryRepository) Update(_ context.Context, reservation Reservation, expected Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.byID[reservation.ID]
	if !exists {
		return ErrReservationNotFound
	}
	if stored.Status != expected {
		return ErrStatusChanged
	}
	m.byID[reservation.ID] = reservation
	return nil
}

func (m *MemoryRepository) ExpirePendingBefore(_ context.Context, cutoff, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, reservation := range m.byID {
		if reservation.Status != StatusPending || !reservation.ReservedAt.Before(cutoff) {
			continue
		}
		reservation.Status = StatusExpired
		reservation.UpdatedAt = now
		m.byID[id] = reservation
		expired++
	}
	return expired, nil
}

func (m *MemoryRepository) filter(keep func(Reservation) bool) []Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Reservation, 0)
	for _, reservation := range m.byID {
		if keep(reservation) {
			items = append(items, reservation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ReservedAt.Equal(items[j].ReservedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].ReservedAt.Before(items[j].ReservedAt)
	})
	return items
}
