package rewards

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps rewards and ledger entries in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	rewards map[string]Reward
	ledger  map[string][]LedgerEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rewards: make(map[string]Reward),
		ledger:  make(map[string][]LedgerEntry),
	}
}

func (m *MemoryRepository) CreateReward(_ context.Context, reward Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards[reward.ID] = reward
	return nil
}

func (m *MemoryRepository) RewardByID(_ context.Context, rewardID string) (Reward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reward, exists := m.rewards[rewardID]
	if !exists {
		return Reward{}, ErrRewardNotFound
	}
	return reward, nil
}

func (m *MemoryRepository) ListRewards(_ context.Context, activeOnly bool) ([]Reward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Reward, 0, len(m.rewards))
	for _, reward := range m.rewards {
		if activeOnly && !reward.Active {
			continue
		}
		items = append(items, reward)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CostPoints == items[j].CostPoints {
			return items[i].ID < items[j].ID
		}
		return items[i].CostPoints < items[j].CostPoints
	})
	return items, nil
}

func (m *MemoryRepository) AppendEntry(_ context.Context, entry LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ledger[entry.UserID] {
		if existing.Reference == entry.Reference {
			return ErrDuplicateEntry
		}
	}
	m.ledger[entry.UserID] = append(m.ledger[entry.UserID], entry)
	return nil
}

func (m *MemoryRepository) HasEntry(_ context.Context, userID, reference string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.ledger[userID] {
		if entry.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) Balance(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var balance int64
	for _, entry := range m.ledger[userID] {
		balance += entry.Points
	}
	return balance, nil
}

func (m *MemoryRepository) Entries(_ context.Context, userID string) ([]LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]LedgerEntry, len(m.ledger[userID]))
	copy(entries, m.ledger[userID])
	return entries, nil
}
