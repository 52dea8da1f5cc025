package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

var testNow = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, restaurants.Restaurant) {
	t.Helper()
	restaurantService := restaurants.NewService(restaurants.NewMemoryRepository())
	restaurant, err := restaurantService.Create(context.Background(), restaurants.CreateInput{Name: "Osteria", StaffID: "usr_staff"})
	require.NoError(t, err)

	service := NewService(NewMemoryRepository(), restaurantService)
	service.now = func() time.Time { return testNow }
	return service, restaurant
}

func TestCreateValidates(t *testing.T) {
	service, restaurant := newTestService(t)
	ctx := context.Background()
	tomorrow := testNow.Add(24 * time.Hour)

	tests := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{name: "party too small", input: CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: tomorrow, PartySize: 0}, wantErr: ErrInvalidPartySize},
		{name: "party too large", input: CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: tomorrow, PartySize: 21}, wantErr: ErrInvalidPartySize},
		{name: "in the past", input: CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: testNow, PartySize: 2}, wantErr: ErrReservationInPast},
		{name: "unknown restaurant", input: CreateInput{UserID: "usr_1", RestaurantID: "rst_missing", ReservedAt: tomorrow, PartySize: 2}, wantErr: restaurants.ErrRestaurantNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(ctx, tc.input)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}

	created, err := service.Create(ctx, CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: tomorrow, PartySize: 4, Notes: " window seat "})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "window seat", created.Notes)

	mine, err := service.ListForUser(ctx, "usr_1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	atRestaurant, err := service.ListForRestaurant(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Len(t, atRestaurant, 1)
}

func TestStaffTransitions(t *testing.T) {
	service, restaurant := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: testNow.Add(time.Hour), PartySize: 2})
	require.NoError(t, err)

	_, err = service.Transition(ctx, created, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.Transition(ctx, created, Status("seated"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	confirmed, err := service.Transition(ctx, created, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	completed, err := service.Transition(ctx, confirmed, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = service.Transition(ctx, completed, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestRescheduleAndCancel(t *testing.T) {
	service, restaurant := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: testNow.Add(time.Hour), PartySize: 2})
	require.NoError(t, err)
	confirmed, err := service.Transition(ctx, created, StatusConfirmed)
	require.NoError(t, err)

	later := testNow.Add(48 * time.Hour)
	party := 6
	rescheduled, err := service.Reschedule(ctx, confirmed, RescheduleInput{ReservedAt: &later, PartySize: &party})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rescheduled.Status)
	assert.Equal(t, 6, rescheduled.PartySize)
	assert.True(t, rescheduled.ReservedAt.Equal(later))

	past := testNow.Add(-time.Hour)
	_, err = service.Reschedule(ctx, rescheduled, RescheduleInput{ReservedAt: &past})
	assert.ErrorIs(t, err, ErrReservationInPast)

	cancelled, err := service.Cancel(ctx, rescheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = service.Cancel(ctx, cancelled)
	assert.ErrorIs(t, err, ErrReservationClosed)
	_, err = service.Reschedule(ctx, cancelled, RescheduleInput{PartySize: &party})
	assert.ErrorIs(t, err, ErrReservationClosed)
}

func TestStaleCopiesCannotOverwriteStoredStatus(t *testing.T) {
	service, restaurant := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: testNow.Add(time.Hour), PartySize: 2})
	require.NoError(t, err)
	confirmed, err := service.Transition(ctx, created, StatusConfirmed)
	require.NoError(t, err)

	customerView := confirmed
	_, err = service.Transition(ctx, confirmed, StatusCompleted)
	require.NoError(t, err)

	_, err = service.Cancel(ctx, customerView)
	assert.ErrorIs(t, err, ErrReservationClosed)
	party := 3
	_, err = service.Reschedule(ctx, customerView, RescheduleInput{PartySize: &party})
	assert.ErrorIs(t, err, ErrReservationClosed)
	_, err = service.Transition(ctx, customerView, StatusNoShow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestTransitionLosesToExpiry(t *testing.T) {
	service, restaurant := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{UserID: "usr_1", RestaurantID: restaurant.ID, ReservedAt: testNow.Add(time.Hour), PartySize: 2})
	require.NoError(t, err)

	expired, err := service.ExpireStale(ctx, testNow.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	_, err = service.Transition(ctx, created, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)
}

func TestExpireStale(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	service := NewService(repo, nil)
	service.now = func() time.Time { return testNow }

	require.NoError(t, repo.Create(ctx, Reservation{ID: "res_old", Status: StatusPending, ReservedAt: testNow.Add(-3 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, Reservation{ID: "res_recent", Status: StatusPending, ReservedAt: testNow.Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, Reservation{ID: "res_confirmed", Status: StatusConfirmed, ReservedAt: testNow.Add(-3 * time.Hour)}))

	expired, err := service.ExpireStale(ctx, testNow.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	old, err := service.Get(ctx, "res_old")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, old.Status)

	recent, err := service.Get(ctx, "res_recent")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, recent.Status)
}
