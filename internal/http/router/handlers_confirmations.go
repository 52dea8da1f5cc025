package router

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/confirmations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

func (a *api) handleReservationConfirmation(w http.ResponseWriter, r *http.Request) {
	reservation, ok := access.ReservationFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReservationNotFound)
		return
	}

	restaurant, err := a.restaurants.Get(r.Context(), reservation.RestaurantID)
	if err != nil {
		if errors.Is(err, restaurants.ErrRestaurantNotFound) {
			writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
			return
		}
		writeInternalError(w, r, err, "restaurant lookup failed")
		return
	}

	slip, err := a.confirmations.Generate(reservation, restaurant)
	if err != nil {
		if errors.Is(err, confirmations.ErrReservationNotConfirmed) {
			writeError(w, http.StatusConflict, "confirmation is available once the restaurant confirms")
			return
		}
		writeInternalError(w, r, err, "unable to generate confirmation")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+slip.FileName)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(slip.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(slip.Content)
}
