package rewards

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
)

const (
	ReasonVisit      = "visit"
	ReasonRedemption = "redemption"
)

var (
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRewardInactive     = errors.New("reward is not available")
	ErrInvalidReward      = errors.New("invalid reward input")
	ErrInvalidPoints      = errors.New("points must be positive")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrDuplicateEntry     = errors.New("ledger entry already recorded")
)

// Reward is an item customers can redeem points for.
type Reward struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CostPoints  int64     `json:"cost_points"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LedgerEntry is one signed change to a customer's points balance.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a balance together with the entries that produced it.
type Account struct {
	UserID  string        `json:"user_id"`
	Balance int64         `json:"balance"`
	Entries []LedgerEntry `json:"entries"`
}

// Repository persists the reward catalogue and the points ledger.
// AppendEntry rejects a second entry with the same user and reference
// with ErrDuplicateEntry.
type Repository interface {
	CreateReward(ctx context.Context, reward Reward) error
	RewardByID(ctx context.Context, rewardID string) (Reward, error)
	ListRewards(ctx context.Context, activeOnly bool) ([]Reward, error)
	AppendEntry(ctx context.Context, entry LedgerEntry) error
	HasEntry(ctx context.Context, userID, reference string) (bool, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Entries(ctx context.Context, userID string) ([]LedgerEntry, error)
}

// Service awards and redeems points. Balance checks and the debit that
// follows run under one lock, so a balance cannot go negative within a
// process. Awards stay single across processes through the repository's
// uniqueness on (user, reference).
type Service struct {
	mu   sync.Mutex
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateReward(ctx context.Context, name, description string, costPoints int64) (Reward, error) {
	name = strings.TrimSpace(name)
	if name == "" || costPoints <= 0 {
		return Reward{}, ErrInvalidReward
	}

	reward := Reward{
		ID:          identifier.New("rwd"),
		Name:        name,
		Description: strings.TrimSpace(description),
		CostPoints:  costPoints,
		Active:      true,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateReward(ctx, reward); err != nil {
		return Reward{}, err
	}
	return reward, nil
}

func (s *Service) ListRewards(ctx context.Context) ([]Reward, error) {
	return s.repo.ListRewards(ctx, true)
}

// Award credits points once per reference. The boolean reports whether a
// new entry was written.
func (s *Service) Award(ctx context.Context, userID string, points int64, reference string) (LedgerEntry, bool, error) {
	if points <= 0 {
		return LedgerEntry{}, false, ErrInvalidPoints
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.HasEntry(ctx, userID, reference)
	if err != nil {
		return LedgerEntry{}, false, err
	}
	if exists {
		return LedgerEntry{}, false, nil
	}

	entry := s.newEntry(userID, points, ReasonVisit, reference)
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			return LedgerEntry{}, false, nil
		}
		return LedgerEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Service) Redeem(ctx context.Context, userID, rewardID string) (LedgerEntry, error) {
	reward, err := s.repo.RewardByID(ctx, rewardID)
	if err != nil {
		return LedgerEntry{}, err
	}
	if !reward.Active {
		return LedgerEntry{}, ErrRewardInactive
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return LedgerEntry{}, err
	}
	if balance < reward.CostPoints {
		return LedgerEntry{}, ErrInsufficientPoints
	}

	entry := s.newEntry(userID, -reward.CostPoints, ReasonRedemption, "")
	entry.Reference = "reward:" + reward.ID + ":" + entry.ID
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

func (s *Service) Account(ctx context.Context, userID string) (Account, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	entries, err := s.repo.Entries(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	return Account{UserID: userID, Balance: balance, Entries: entries}, nil
}

func (s *Service) newEntry(userID string, points int64, reason, reference string) LedgerEntry {
	return LedgerEntry{
		ID:        identifier.New("led"),
		UserID:    userID,
		Points:    points,
		Reason:    reason,
		Reference: reference,
		CreatedAt: s.now(),
	}
}
