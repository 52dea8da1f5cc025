// Package events publishes reservation lifecycle events to a message
// broker for consumers outside this service.
package events

import (
	"context"
	"time"
)

const (
	TypeReservationCreated       = "reservation.created"
	TypeReservationUpdated       = "reservation.updated"
	TypeReservationCancelled     = "reservation.cancelled"
	TypeReservationStatusChanged = "reservation.status_changed"
)

// Event describes a change to a reservation.
type Event struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	RestaurantID  string    `json:"restaurant_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
