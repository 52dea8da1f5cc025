package access

import (
	"context"

	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
)

type contextKey string

const (
	reservationKey contextKey = "access_reservation"
	restaurantKey  contextKey = "access_restaurant"
	reviewKey      contextKey = "access_review"
)

func WithReservation(ctx context.Context, reservation reservations.Reservation) context.Context {
	return context.WithValue(ctx, reservationKey, reservation)
}

func ReservationFromContext(ctx context.Context) (reservations.Reservation, bool) {
	reservation, ok := ctx.Value(reservationKey).(reservations.Reservation)
	return reservation, ok
}

func WithRestaurant(ctx context.Context, restaurant restaurants.Restaurant) context.Context {
	return context.WithValue(ctx, restaurantKey, restaurant)
}

func RestaurantFromContext(ctx context.Context) (restaurants.Restaurant, bool) {
	restaurant, ok := ctx.Value(restaurantKey).(restaurants.Restaurant)
	return restaurant, ok
}

func WithReview(ctx context.Context, review reviews.Review) context.Context {
	return context.WithValue(ctx, reviewKey, review)
}

func ReviewFromContext(ctx context.Context) (reviews.Review, bool) {
	review, ok := ctx.Value(reviewKey).(reviews.Review)
	return review, ok
}
