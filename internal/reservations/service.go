package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusExpired   Status = "expired"
)

const (
	MinPartySize = 1
	MaxPartySize = 20
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidPartySize    = errors.New("invalid party size")
	ErrReservationInPast   = errors.New("reservation time must be in the future")
	ErrInvalidStatus       = errors.New("invalid reservation status")
	ErrInvalidTransition   = errors.New("reservation status transition not allowed")
	ErrReservationClosed   = errors.New("reservation can no longer be changed")
	ErrStatusChanged       = errors.New("reservation status changed concurrently")
)

// transitions lists the statuses staff may move a reservation to.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusNoShow:    true,
		StatusCancelled: true,
	},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusExpired:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the customer may still change the reservation.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation is a customer's booking at a restaurant.
type Reservation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	ReservedAt   time.Time `json:"reserved_at"`
	PartySize    int       `json:"party_size"`
	Notes        string    `json:"notes"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateInput struct {
	UserID       string
	RestaurantID string
	ReservedAt   time.Time
	PartySize    int
	Notes        string
}

type RescheduleInput struct {
	ReservedAt *time.Time
	PartySize  *int
	Notes      *string
}

// Repository persists reservations. ByID and Update report a missing
// record with ErrReservationNotFound. Update only applies while the stored
// status still equals expected and reports ErrStatusChanged otherwise.
type Repository interface {
	Create(ctx context.Context, reservation Reservation) error
	ByID(ctx context.Context, reservationID string) (Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Reservation, error)
	Update(ctx context.Context, reservation Reservation, expected Status) error
	ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int, error)
}

// RestaurantLookup resolves the restaurant a reservation is made at.
type RestaurantLookup interface {
	Get(ctx context.Context, restaurantID string) (restaurants.Restaurant, error)
}

type Service struct {
	repo        Repository
	restaurants RestaurantLookup
	now         func() time.Time
}

func NewService(repo Repository, restaurantLookup RestaurantLookup) *Service {
	return &Service{
		repo:        repo,
		restaurants: restaurantLookup,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Reservation, error) {
	if err := validatePartySize(input.PartySize); err != nil {
		return Reservation{}, err
	}
	now := s.now()
	if !input.ReservedAt.After(now) {
		return Reservation{}, ErrReservationInPast
	}
	if _, err := s.restaurants.Get(ctx, input.RestaurantID); err != nil {
		return Reservation{}, err
	}

	reservation := Reservation{
		ID:           identifier.New("res"),
		UserID:       input.UserID,
		RestaurantID: input.RestaurantID,
		ReservedAt:   input.ReservedAt.UTC(),
		PartySize:    input.PartySize,
		Notes:        strings.TrimSpace(input.Notes),
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, reservation); err != nil {
		return Reservation{}, err
	}
	return reservation, nil
}

func (s *Service) Get(ctx context.Context, reservationID string) (Reservation, error) {
	return s.repo.ByID(ctx, reservationID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListForRestaurant(ctx context.Context, restaurantID string) ([]Reservation, error) {
	return s.repo.ListByRestaurant(ctx, restaurantID)
}

// Reschedule changes time, party size or notes of an open reservation and
// sends it back to pending for the restaurant to confirm again.
func (s *Service) Reschedule(ctx context.Context, reservation Reservation, input RescheduleInput) (Reservation, error) {
	if !reservation.Status.IsOpen() {
		return Reservation{}, ErrReservationClosed
	}

	expected := reservation.Status
	now := s.now()
	if input.ReservedAt != nil {
		if !input.ReservedAt.After(now) {
			return Reservation{}, ErrReservationInPast
		}
		reservation.ReservedAt = input.ReservedAt.UTC()
	}
	if input.PartySize != nil {
		if err := validatePartySize(*input.PartySize); err != nil {
			return Reservation{}, err
		}
		reservation.PartySize = *input.PartySize
	}
	if input.Notes != nil {
		reservation.Notes = strings.TrimSpace(*input.Notes)
	}
	reservation.Status = StatusPending
	reservation.UpdatedAt = now

	if err := s.repo.Update(ctx, reservation, expected); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return Reservation{}, ErrReservationClosed
		}
		return Reservation{}, err
	}
	return reservation, nil
}

// Cancel is the customer side cancellation of an open reservation.
func (s *Service) Cancel(ctx context.Context, reservation Reservation) (Reservation, error) {
	if !reservation.Status.IsOpen() {
		return Reservation{}, ErrReservationClosed
	}
	updated, err := s.save(ctx, reservation, StatusCancelled)
	if errors.Is(err, ErrStatusChanged) {
		return Reservation{}, ErrReservationClosed
	}
	return updated, err
}

// Transition moves a reservation along the staff workflow.
func (s *Service) Transition(ctx context.Context, reservation Reservation, to Status) (Reservation, error) {
	if !to.IsValid() {
		return Reservation{}, ErrInvalidStatus
	}
	if !transitions[reservation.Status][to] {
		return Reservation{}, ErrInvalidTransition
	}
	updated, err := s.save(ctx, reservation, to)
	if errors.Is(err, ErrStatusChanged) {
		return Reservation{}, ErrInvalidTransition
	}
	return updated, err
}

// ExpireStale marks pending reservations whose time is before cutoff as
// expired and returns how many were changed.
func (s *Service) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	return s.repo.ExpirePendingBefore(ctx, cutoff, s.now())
}

// save writes the new status only if the stored one is still the status
// reservation was loaded with.
func (s *Service) save(ctx context.Context, reservation Reservation, status Status) (Reservation, error) {
	expected := reservation.Status
	reservation.Status = status
	reservation.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, reservation, expected); err != nil {
		return Reservation{}, err
	}
	return reservation, nil
}

func validatePartySize(size int) error {
	if size < MinPartySize || size > MaxPartySize {
		return ErrInvalidPartySize
	}
	return nil
}
