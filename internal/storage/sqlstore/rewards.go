package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/yxshee/biteback/services/api/internal/rewards"
)

// RewardRepository persists the reward catalogue and the points ledger.
type RewardRepository struct {
	db *sql.DB
}

func NewRewardRepository(store *Store) *RewardRepository {
	return &RewardRepository{db: store.db}
}

var _ rewards.Repository = (*RewardRepository)(nil)

const (
	rewardColumns = `id, name, description, cost_points, active, created_at`
	ledgerColumns = `id, user_id, points, reason, reference, created_at`
)

func (r *RewardRepository) CreateReward(ctx context.Context, reward rewards.Reward) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rewards (`+rewardColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		reward.ID, reward.Name, reward.Description, reward.CostPoints, reward.Active, timestamp(reward.CreatedAt),
	)
	return errors.Wrap(err, "sqlstore: insert reward")
}

func (r *RewardRepository) RewardByID(ctx context.Context, rewardID string) (rewards.Reward, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, rewardID)
	reward, err := scanReward(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rewards.Reward{}, rewards.ErrRewardNotFound
	}
	return reward, err
}

func (r *RewardRepository) ListRewards(ctx context.Context, activeOnly bool) ([]rewards.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards`
	args := make([]interface{}, 0, 1)
	if activeOnly {
		query += ` WHERE active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY cost_points, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: list rewards")
	}
	defer func() { _ = rows.Close() }()

	items := make([]rewards.Reward, 0)
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, reward)
	}
	return items, errors.Wrap(rows.Err(), "sqlstore: list rewards")
}

func (r *RewardRepository) AppendEntry(ctx context.Context, entry rewards.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reward_ledger (`+ledgerColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.Points, entry.Reason, entry.Reference, timestamp(entry.CreatedAt),
	)
	if isUniqueViolation(err) {
		return rewards.ErrDuplicateEntry
	}
	return errors.Wrap(err, "sqlstore: append ledger entry")
}

func (r *RewardRepository) HasEntry(ctx context.Context, userID, reference string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reward_ledger WHERE user_id = $1 AND reference = $2`, userID, reference,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "sqlstore: lookup ledger entry")
	}
	return count > 0, nil
}

func (r *RewardRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT CAST(COALESCE(SUM(points), 0) AS BIGINT) FROM reward_ledger WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		return 0, errors.Wrap(err, "sqlstore: balance")
	}
	return balance, nil
}

func (r *RewardRepository) Entries(ctx context.Context, userID string) ([]rewards.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM reward_ledger WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: list ledger")
	}
	defer func() { _ = rows.Close() }()

	entries := make([]rewards.LedgerEntry, 0)
	for rows.Next() {
		var entry rewards.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Points, &entry.Reason, &entry.Reference, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore: scan ledger entry")
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, errors.Wrap(rows.Err(), "sqlstore: list ledger")
}

func scanReward(row scanner) (rewards.Reward, error) {
	var reward rewards.Reward
	err := row.Scan(&reward.ID, &reward.Name, &reward.Description, &reward.CostPoints, &reward.Active, &reward.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rewards.Reward{}, err
	}
	if err != nil {
		return rewards.Reward{}, errors.Wrap(err, "sqlstore: scan reward")
	}
	reward.CreatedAt = reward.CreatedAt.UTC()
	return reward, nil
}
