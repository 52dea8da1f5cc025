// Package auditlog keeps the owner-visible trail of staff and owner
// changes to restaurants, reservations and the reward catalogue.
package auditlog

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
)

const (
	DefaultCapacity  = 10_000
	defaultListLimit = 50
	maxListLimit     = 200
)

// Actions recorded by the API.
const (
	ActionRestaurantCreate  = "restaurant.create"
	ActionRestaurantUpdate  = "restaurant.update"
	ActionRestaurantDelete  = "restaurant.delete"
	ActionReservationStatus = "reservation.status"
	ActionRewardCreate      = "reward.create"

	TargetRestaurant  = "restaurant"
	TargetReservation = "reservation"
	TargetReward      = "reward"
)

var ErrInvalidAuditLog = errors.New("invalid audit log input")

type Entry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actor_id"`
	ActorRole  string          `json:"actor_role"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type RecordInput struct {
	ActorID    string
	ActorRole  string
	Action     string
	TargetType string
	TargetID   string
	Metadata   interface{}
}

// ListInput filters the trail. Empty fields match everything and a zero
// Since means no lower time bound.
type ListInput struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Since      time.Time
	Limit      int
	Offset     int
}

type ListResult struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

func (in ListInput) matches(entry Entry) bool {
	switch {
	case in.ActorID != "" && entry.ActorID != in.ActorID:
		return false
	case in.Action != "" && entry.Action != in.Action:
		return false
	case in.TargetType != "" && entry.TargetType != in.TargetType:
		return false
	case in.TargetID != "" && entry.TargetID != in.TargetID:
		return false
	case !in.Since.IsZero() && entry.CreatedAt.Before(in.Since):
		return false
	}
	return true
}

// Service holds the most recent entries in a fixed size ring.
type Service struct {
	mu    sync.RWMutex
	ring  []Entry
	next  int
	count int
	now   func() time.Time
}

func NewService() *Service {
	return NewServiceWithCapacity(DefaultCapacity)
}

func NewServiceWithCapacity(capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{
		ring: make([]Entry, capacity),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(input RecordInput) (Entry, error) {
	entry := Entry{
		ActorID:    strings.TrimSpace(input.ActorID),
		ActorRole:  strings.ToLower(strings.TrimSpace(input.ActorRole)),
		Action:     strings.ToLower(strings.TrimSpace(input.Action)),
		TargetType: strings.ToLower(strings.TrimSpace(input.TargetType)),
		TargetID:   strings.TrimSpace(input.TargetID),
	}
	if entry.ActorID == "" || entry.Action == "" || entry.TargetType == "" || entry.TargetID == "" {
		return Entry{}, ErrInvalidAuditLog
	}
	if input.Metadata != nil {
		encoded, err := json.Marshal(input.Metadata)
		if err != nil {
			return Entry{}, ErrInvalidAuditLog
		}
		entry.Metadata = encoded
	}
	entry.ID = identifier.New("aud")
	entry.CreatedAt = s.now()

	s.mu.Lock()
	s.ring[s.next] = entry
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	s.mu.Unlock()

	return entry, nil
}

// List returns matching entries newest first.
func (s *Service) List(input ListInput) ListResult {
	input.ActorID = strings.TrimSpace(input.ActorID)
	input.Action = strings.ToLower(strings.TrimSpace(input.Action))
	input.TargetType = strings.ToLower(strings.TrimSpace(input.TargetType))
	input.TargetID = strings.TrimSpace(input.TargetID)

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := ListResult{Items: []Entry{}}
	for i := 1; i <= s.count; i++ {
		entry := s.ring[(s.next-i+len(s.ring))%len(s.ring)]
		if !input.matches(entry) {
			continue
		}
		if result.Total >= offset && len(result.Items) < limit {
			result.Items = append(result.Items, entry)
		}
		result.Total++
	}
	return result
}
