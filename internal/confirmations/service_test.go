package confirmations

import (
	"bytes"
	"testing"
	"time"

	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

func testRestaurant() restaurants.Restaurant {
	return restaurants.Restaurant{ID: "rst_1", Name: "Trattoria", Address: "1 Main St", StaffID: "usr_staff"}
}

func testReservation(status reservations.Status, updatedAt time.Time) reservations.Reservation {
	return reservations.Reservation{
		ID:           "res_1",
		UserID:       "usr_1",
		RestaurantID: "rst_1",
		ReservedAt:   time.Date(2026, time.May, 10, 19, 30, 0, 0, time.UTC),
		PartySize:    4,
		Notes:        "window seat",
		Status:       status,
		UpdatedAt:    updatedAt,
	}
}

func TestGenerateIsStablePerRevision(t *testing.T) {
	svc := NewService(Config{})
	svc.now = func() time.Time {
		return time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	}
	revision := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

	first, err := svc.Generate(testReservation(reservations.StatusConfirmed, revision), testRestaurant())
	if err != nil {
		t.Fatalf("Generate() first error = %v", err)
	}
	second, err := svc.Generate(testReservation(reservations.StatusConfirmed, revision), testRestaurant())
	if err != nil {
		t.Fatalf("Generate() second error = %v", err)
	}
	if first.Number != second.Number || first.FileName != second.FileName {
		t.Fatalf("expected stable slip, got %s and %s", first.Number, second.Number)
	}
	if !bytes.HasPrefix(first.Content, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", first.Content)
	}

	rescheduled, err := svc.Generate(testReservation(reservations.StatusConfirmed, revision.Add(time.Hour)), testRestaurant())
	if err != nil {
		t.Fatalf("Generate() rescheduled error = %v", err)
	}
	if rescheduled.Number == first.Number {
		t.Fatalf("expected new slip after reschedule, got %s", rescheduled.Number)
	}
}

func TestGenerateRejectsUnconfirmed(t *testing.T) {
	svc := NewService(Config{})
	for _, status := range []reservations.Status{reservations.StatusPending, reservations.StatusCancelled} {
		if _, err := svc.Generate(testReservation(status, time.Now()), testRestaurant()); err != ErrReservationNotConfirmed {
			t.Fatalf("status %s: expected ErrReservationNotConfirmed, got %v", status, err)
		}
	}
}

func TestGenerateRejectsMismatchedRestaurant(t *testing.T) {
	svc := NewService(Config{})
	other := testRestaurant()
	other.ID = "rst_other"
	if _, err := svc.Generate(testReservation(reservations.StatusConfirmed, time.Now()), other); err != ErrInvalidReservation {
		t.Fatalf("expected ErrInvalidReservation, got %v", err)
	}
}
