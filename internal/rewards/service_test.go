package rewards

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardIsIdempotentPerReference(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMemoryRepository())

	_, _, err := service.Award(ctx, "usr_1", 0, "res_1")
	assert.ErrorIs(t, err, ErrInvalidPoints)

	entry, created, err := service.Award(ctx, "usr_1", 100, "res_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ReasonVisit, entry.Reason)

	_, created, err = service.Award(ctx, "usr_1", 100, "res_1")
	require.NoError(t, err)
	assert.False(t, created)

	account, err := service.Account(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)
	assert.Len(t, account.Entries, 1)
}

// blindLedger hides existing entries from HasEntry, the view a second
// process gets when it checks before the first one has written.
type blindLedger struct {
	*MemoryRepository
}

func (blindLedger) HasEntry(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestAwardFallsBackOnDuplicateEntry(t *testing.T) {
	ctx := context.Background()
	service := NewService(blindLedger{NewMemoryRepository()})

	_, created, err := service.Award(ctx, "usr_1", 100, "res_1")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = service.Award(ctx, "usr_1", 100, "res_1")
	require.NoError(t, err)
	assert.False(t, created)

	account, err := service.Account(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	service := NewService(repo)

	_, err := service.CreateReward(ctx, " ", "", 10)
	assert.ErrorIs(t, err, ErrInvalidReward)
	_, err = service.CreateReward(ctx, "Dessert", "", 0)
	assert.ErrorIs(t, err, ErrInvalidReward)

	dessert, err := service.CreateReward(ctx, "Free dessert", "Any dessert on the menu", 150)
	require.NoError(t, err)

	_, err = service.Redeem(ctx, "usr_1", "rwd_missing")
	assert.ErrorIs(t, err, ErrRewardNotFound)

	_, _, err = service.Award(ctx, "usr_1", 100, "res_1")
	require.NoError(t, err)
	_, err = service.Redeem(ctx, "usr_1", dessert.ID)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, _, err = service.Award(ctx, "usr_1", 100, "res_2")
	require.NoError(t, err)
	entry, err := service.Redeem(ctx, "usr_1", dessert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-150), entry.Points)
	assert.True(t, strings.HasPrefix(entry.Reference, "reward:"+dessert.ID+":"))

	account, err := service.Account(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.Balance)

	retired := dessert
	retired.ID = "rwd_retired"
	retired.Active = false
	require.NoError(t, repo.CreateReward(ctx, retired))
	_, err = service.Redeem(ctx, "usr_1", retired.ID)
	assert.ErrorIs(t, err, ErrRewardInactive)

	active, err := service.ListRewards(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dessert.ID, active[0].ID)
}
