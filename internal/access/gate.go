package access

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/logger"
	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
)

// Messages returned to callers when a gate stops a request.
const (
	MsgAuthenticationRequired = "authentication required"
	MsgReservationNotFound    = "Reservation not found"
	MsgRestaurantNotFound     = "Restaurant not found"
	MsgReviewNotFound         = "Review not found"
	MsgStaffCannotManageRes   = "Staff cannot manage reservation"
	MsgStaffCannotManageRest  = "Staff cannot manage restaurant"
	MsgReservationNotOwned    = "Reservation does not belong to user"
	MsgReviewNotOwned         = "Review does not belong to user"
	msgInternalError          = "internal server error"
)

// Outcome is the result of a gate check.
type Outcome int

const (
	Authorized Outcome = iota
	NotFound
	Forbidden
)

// Decision is an outcome plus the message shown when it stops a request.
type Decision struct {
	Outcome Outcome
	Message string
}

// Status maps the decision to an HTTP status code.
func (d Decision) Status() int {
	switch d.Outcome {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

var allow = Decision{Outcome: Authorized}

func notFound(message string) Decision  { return Decision{Outcome: NotFound, Message: message} }
func forbidden(message string) Decision { return Decision{Outcome: Forbidden, Message: message} }

type ReservationFinder interface {
	Get(ctx context.Context, reservationID string) (reservations.Reservation, error)
}

type RestaurantFinder interface {
	Get(ctx context.Context, restaurantID string) (restaurants.Restaurant, error)
}

type ReviewFinder interface {
	Get(ctx context.Context, reviewID string) (reviews.Review, error)
}

// Gate builds ownership middleware over the resource stores.
type Gate struct {
	reservations ReservationFinder
	restaurants  RestaurantFinder
	reviews      ReviewFinder
}

func NewGate(reservationFinder ReservationFinder, restaurantFinder RestaurantFinder, reviewFinder ReviewFinder) *Gate {
	return &Gate{
		reservations: reservationFinder,
		restaurants:  restaurantFinder,
		reviews:      reviewFinder,
	}
}

// checkFunc loads the resource for resourceID and decides whether callerID
// owns it. On Authorized it returns ctx enriched with the loaded records.
// A non-nil error is a lookup fault, not a decision.
type checkFunc func(ctx context.Context, callerID, resourceID string) (context.Context, Decision, error)

// ReservationByStaff admits the staff member managing the reservation's
// restaurant and attaches both the reservation and the restaurant.
func (g *Gate) ReservationByStaff(param string) func(http.Handler) http.Handler {
	return guard(param, g.checkReservationByStaff)
}

// ReservationByCustomer admits the customer who made the reservation.
func (g *Gate) ReservationByCustomer(param string) func(http.Handler) http.Handler {
	return guard(param, g.checkReservationByCustomer)
}

// RestaurantByStaff admits the staff member managing the restaurant.
func (g *Gate) RestaurantByStaff(param string) func(http.Handler) http.Handler {
	return guard(param, g.checkRestaurantByStaff)
}

// ReviewByCustomer admits the customer who wrote the review.
func (g *Gate) ReviewByCustomer(param string) func(http.Handler) http.Handler {
	return guard(param, g.checkReviewByCustomer)
}

func (g *Gate) checkReservationByStaff(ctx context.Context, callerID, reservationID string) (context.Context, Decision, error) {
	reservation, err := g.reservations.Get(ctx, reservationID)
	if errors.Is(err, reservations.ErrReservationNotFound) {
		return ctx, notFound(MsgReservationNotFound), nil
	}
	if err != nil {
		return ctx, Decision{}, err
	}

	restaurant, err := g.restaurants.Get(ctx, reservation.RestaurantID)
	if errors.Is(err, restaurants.ErrRestaurantNotFound) {
		return ctx, notFound(MsgRestaurantNotFound), nil
	}
	if err != nil {
		return ctx, Decision{}, err
	}

	if !identifier.Equal(callerID, restaurant.StaffID) {
		return ctx, forbidden(MsgStaffCannotManageRes), nil
	}
	return WithRestaurant(WithReservation(ctx, reservation), restaurant), allow, nil
}

func (g *Gate) checkReservationByCustomer(ctx context.Context, callerID, reservationID string) (context.Context, Decision, error) {
	reservation, err := g.reservations.Get(ctx, reservationID)
	if errors.Is(err, reservations.ErrReservationNotFound) {
		return ctx, notFound(MsgReservationNotFound), nil
	}
	if err != nil {
		return ctx, Decision{}, err
	}

	if !identifier.Equal(callerID, reservation.UserID) {
		return ctx, forbidden(MsgReservationNotOwned), nil
	}
	return WithReservation(ctx, reservation), allow, nil
}

func (g *Gate) checkRestaurantByStaff(ctx context.Context, callerID, restaurantID string) (context.Context, Decision, error) {
	restaurant, err := g.restaurants.Get(ctx, restaurantID)
	if errors.Is(err, restaurants.ErrRestaurantNotFound) {
		return ctx, notFound(MsgRestaurantNotFound), nil
	}
	if err != nil {
		return ctx, Decision{}, err
	}

	if !identifier.Equal(callerID, restaurant.StaffID) {
		return ctx, forbidden(MsgStaffCannotManageRest), nil
	}
	return WithRestaurant(ctx, restaurant), allow, nil
}

func (g *Gate) checkReviewByCustomer(ctx context.Context, callerID, reviewID string) (context.Context, Decision, error) {
	review, err := g.reviews.Get(ctx, reviewID)
	if errors.Is(err, reviews.ErrReviewNotFound) {
		return ctx, notFound(MsgReviewNotFound), nil
	}
	if err != nil {
		return ctx, Decision{}, err
	}

	if !identifier.Equal(callerID, review.CustomerID) {
		return ctx, forbidden(MsgReviewNotOwned), nil
	}
	return WithReview(ctx, review), allow, nil
}

func guard(param string, check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, MsgAuthenticationRequired)
				return
			}

			ctx, decision, err := check(r.Context(), identity.UserID, chi.URLParam(r, param))
			if err != nil {
				fault(w, r, err)
				return
			}
			if decision.Outcome != Authorized {
				logger.FromContext(r.Context()).WithField("param", param).Debugf("gate rejected request: %s", decision.Message)
				writeError(w, decision.Status(), decision.Message)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// fault answers a lookup failure that is neither absence nor a mismatch.
func fault(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).WithError(err).Error("authorization lookup failed")
	writeError(w, http.StatusInternalServerError, msgInternalError)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
