package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/events"
	"github.com/yxshee/biteback/services/api/internal/logger"
	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

type reservationCreateRequest struct {
	RestaurantID string    `json:"restaurant_id"`
	ReservedAt   time.Time `json:"reserved_at"`
	PartySize    int       `json:"party_size"`
	Notes        string    `json:"notes"`
}

type reservationUpdateRequest struct {
	ReservedAt *time.Time `json:"reserved_at"`
	PartySize  *int       `json:"party_size"`
	Notes      *string    `json:"notes"`
}

type reservationStatusRequest struct {
	Status string `json:"status"`
}

type reservationStatusResponse struct {
	Reservation   reservations.Reservation `json:"reservation"`
	PointsAwarded int64                    `json:"points_awarded"`
}

// reservationNotification is the event pushed over the notification
// stream.
type reservationNotification struct {
	Type           string              `json:"type"`
	ReservationID  string              `json:"reservation_id"`
	RestaurantID   string              `json:"restaurant_id"`
	RestaurantName string              `json:"restaurant_name,omitempty"`
	Status         reservations.Status `json:"status"`
	ReservedAt     time.Time           `json:"reserved_at"`
	PartySize      int                 `json:"party_size"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func newReservationNotification(eventType string, reservation reservations.Reservation, restaurantName string) reservationNotification {
	return reservationNotification{
		Type:           eventType,
		ReservationID:  reservation.ID,
		RestaurantID:   reservation.RestaurantID,
		RestaurantName: restaurantName,
		Status:         reservation.Status,
		ReservedAt:     reservation.ReservedAt,
		PartySize:      reservation.PartySize,
		OccurredAt:     time.Now().UTC(),
	}
}

func (a *api) notify(r *http.Request, recipientID string, payload reservationNotification) {
	if err := a.notifications.Notify(recipientID, payload); err != nil {
		logger.FromContext(r.Context()).WithError(err).WithField("recipient", recipientID).Warn("notification encode failed")
	}
}

func (a *api) publish(r *http.Request, eventType string, reservation reservations.Reservation) {
	err := a.events.Publish(r.Context(), events.Event{
		Type:          eventType,
		ReservationID: reservation.ID,
		RestaurantID:  reservation.RestaurantID,
		UserID:        reservation.UserID,
		Status:        string(reservation.Status),
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).WithField("event", eventType).Warn("event publish failed")
	}
}

func writeReservationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reservations.ErrInvalidPartySize):
		writeError(w, http.StatusBadRequest, "party size must be between 1 and 20")
	case errors.Is(err, reservations.ErrReservationInPast):
		writeError(w, http.StatusBadRequest, "reservation time must be in the future")
	case errors.Is(err, reservations.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "unknown reservation status")
	case errors.Is(err, reservations.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "reservation status transition not allowed")
	case errors.Is(err, reservations.ErrReservationClosed):
		writeError(w, http.StatusConflict, "reservation can no longer be changed")
	case errors.Is(err, reservations.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
	case errors.Is(err, restaurants.ErrRestaurantNotFound):
		writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
	default:
		writeInternalError(w, r, err, "reservation request failed")
	}
}

func (a *api) handleReservationCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	var req reservationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reservation, err := a.reservations.Create(r.Context(), reservations.CreateInput{
		UserID:       identity.UserID,
		RestaurantID: strings.TrimSpace(req.RestaurantID),
		ReservedAt:   req.ReservedAt,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
	})
	if err != nil {
		writeReservationError(w, r, err)
		return
	}

	if restaurant, err := a.restaurants.Get(r.Context(), reservation.RestaurantID); err == nil {
		a.notify(r, restaurant.StaffID, newReservationNotification(events.TypeReservationCreated, reservation, restaurant.Name))
	}
	a.publish(r, events.TypeReservationCreated, reservation)
	writeJSON(w, http.StatusCreated, reservation)
}

func (a *api) handleReservationsMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	items, err := a.reservations.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		writeInternalError(w, r, err, "reservation list failed")
		return
	}
	writeJSON(w, http.StatusOK, reservationListResponse{Items: items, Total: len(items)})
}

func (a *api) handleReservationDetail(w http.ResponseWriter, r *http.Request) {
	reservation, ok := access.ReservationFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (a *api) handleReservationReschedule(w http.ResponseWriter, r *http.Request) {
	reservation, ok := access.ReservationFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
		return
	}

	var req reservationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := a.reservations.Reschedule(r.Context(), reservation, reservations.RescheduleInput{
		ReservedAt: req.ReservedAt,
		PartySize:  req.PartySize,
		Notes:      req.Notes,
	})
	if err != nil {
		writeReservationError(w, r, err)
		return
	}

	if restaurant, err := a.restaurants.Get(r.Context(), updated.RestaurantID); err == nil {
		a.notify(r, restaurant.StaffID, newReservationNotification(events.TypeReservationUpdated, updated, restaurant.Name))
	}
	a.publish(r, events.TypeReservationUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (a *api) handleReservationCancel(w http.ResponseWriter, r *http.Request) {
	reservation, ok := access.ReservationFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
		return
	}

	cancelled, err := a.reservations.Cancel(r.Context(), reservation)
	if err != nil {
		writeReservationError(w, r, err)
		return
	}

	if restaurant, err := a.restaurants.Get(r.Context(), cancelled.RestaurantID); err == nil {
		a.notify(r, restaurant.StaffID, newReservationNotification(events.TypeReservationCancelled, cancelled, restaurant.Name))
	}
	a.publish(r, events.TypeReservationCancelled, cancelled)
	writeJSON(w, http.StatusOK, cancelled)
}

func (a *api) handleStaffReservationStatus(w http.ResponseWriter, r *http.Request) {
	reservation, ok := access.ReservationFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
		return
	}
	restaurant, _ := access.RestaurantFromContext(r.Context())

	var req reservationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := a.reservations.Transition(r.Context(), reservation, reservations.Status(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		writeReservationError(w, r, err)
		return
	}

	response := reservationStatusResponse{Reservation: updated}
	if updated.Status == reservations.StatusCompleted && a.pointsPerVisit > 0 {
		entry, awarded, err := a.rewards.Award(r.Context(), updated.UserID, a.pointsPerVisit, updated.ID)
		if err != nil {
			logger.FromContext(r.Context()).WithError(err).WithField("reservation_id", updated.ID).Error("visit points award failed")
		} else if awarded {
			response.PointsAwarded = entry.Points
		}
	}

	a.notify(r, updated.UserID, newReservationNotification(events.TypeReservationStatusChanged, updated, restaurant.Name))
	a.publish(r, events.TypeReservationStatusChanged, updated)
	a.recordAuditLog(r, auditlog.ActionReservationStatus, auditlog.TargetReservation, updated.ID, map[string]string{
		"from": string(reservation.Status),
		"to":   string(updated.Status),
	})

	writeJSON(w, http.StatusOK, response)
}
