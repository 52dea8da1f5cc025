package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

func TestReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	restaurantService := restaurants.NewService(restaurants.NewMemoryRepository())
	restaurant, err := restaurantService.Create(ctx, restaurants.CreateInput{Name: "Osteria", StaffID: "usr_staff"})
	require.NoError(t, err)

	service := NewService(NewMemoryRepository(), restaurantService)

	_, err = service.Create(ctx, "usr_1", restaurant.ID, 6, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = service.Create(ctx, "usr_1", restaurant.ID, 4, strings.Repeat("a", maxCommentLength+1))
	assert.ErrorIs(t, err, ErrCommentTooLong)
	_, err = service.Create(ctx, "usr_1", "rst_missing", 4, "")
	assert.ErrorIs(t, err, restaurants.ErrRestaurantNotFound)

	first, err := service.Create(ctx, "usr_1", restaurant.ID, 4, " lovely pasta ")
	require.NoError(t, err)
	assert.Equal(t, "lovely pasta", first.Comment)

	_, err = service.Create(ctx, "usr_1", restaurant.ID, 5, "again")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = service.Create(ctx, "usr_2", restaurant.ID, 5, "")
	require.NoError(t, err)

	summary, err := service.Summary(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Count: 2, Average: 4.5}, summary)

	rating := 2
	updated, err := service.Update(ctx, first, UpdateInput{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	mine, found, err := service.ForCustomer(ctx, "usr_1", restaurant.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, mine.ID)

	require.NoError(t, service.Delete(ctx, first.ID))
	_, err = service.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	_, found, err = service.ForCustomer(ctx, "usr_1", restaurant.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{Count: 3, Average: 3.7}, Summarize([]Review{{Rating: 5}, {Rating: 4}, {Rating: 2}}))
}
