package auditlog

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestRecordAndList(t *testing.T) {
	svc := NewService()
	start := time.Date(2026, time.May, 10, 18, 0, 0, 0, time.UTC)
	svc.now = steppingClock(start, time.Minute)

	first, err := svc.Record(RecordInput{
		ActorID:    "usr_staff",
		ActorRole:  "Staff",
		Action:     "Reservation.Status",
		TargetType: TargetReservation,
		TargetID:   "res_001",
		Metadata:   map[string]string{"from": "pending", "to": "confirmed"},
	})
	require.NoError(t, err)
	assert.Equal(t, ActionReservationStatus, first.Action)
	assert.Equal(t, "staff", first.ActorRole)

	var metadata map[string]string
	require.NoError(t, json.Unmarshal(first.Metadata, &metadata))
	assert.Equal(t, "confirmed", metadata["to"])

	second, err := svc.Record(RecordInput{
		ActorID:    "usr_owner",
		ActorRole:  "owner",
		Action:     ActionRewardCreate,
		TargetType: TargetReward,
		TargetID:   "rwd_001",
	})
	require.NoError(t, err)

	all := svc.List(ListInput{})
	require.Equal(t, 2, all.Total)
	require.Len(t, all.Items, 2)
	assert.Equal(t, second.ID, all.Items[0].ID, "newest entry first")

	filtered := svc.List(ListInput{TargetType: "RESERVATION"})
	require.Equal(t, 1, filtered.Total)
	assert.Equal(t, first.ID, filtered.Items[0].ID)

	recent := svc.List(ListInput{Since: start.Add(30 * time.Second)})
	require.Equal(t, 1, recent.Total)
	assert.Equal(t, second.ID, recent.Items[0].ID)

	paged := svc.List(ListInput{Limit: 1, Offset: 1})
	assert.Equal(t, 2, paged.Total)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, first.ID, paged.Items[0].ID)

	empty := svc.List(ListInput{Offset: 10})
	assert.Equal(t, 2, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestRingDropsOldestEntries(t *testing.T) {
	svc := NewServiceWithCapacity(3)
	svc.now = steppingClock(time.Date(2026, time.May, 10, 18, 0, 0, 0, time.UTC), time.Second)

	ids := make([]string, 0, 5)
	for _, target := range []string{"rst_1", "rst_2", "rst_3", "rst_4", "rst_5"} {
		entry, err := svc.Record(RecordInput{ActorID: "usr_staff", Action: ActionRestaurantUpdate, TargetType: TargetRestaurant, TargetID: target})
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	result := svc.List(ListInput{})
	require.Equal(t, 3, result.Total)
	assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{result.Items[0].ID, result.Items[1].ID, result.Items[2].ID})
}

func TestRecordRejectsMissingFields(t *testing.T) {
	svc := NewService()
	_, err := svc.Record(RecordInput{ActorID: "usr_1", Action: "x", TargetType: TargetReservation})
	assert.Equal(t, ErrInvalidAuditLog, err)

	_, err = svc.Record(RecordInput{ActorID: "usr_1", Action: "x", TargetType: "t", TargetID: "1", Metadata: make(chan int)})
	assert.Equal(t, ErrInvalidAuditLog, err, "unencodable metadata")
}
