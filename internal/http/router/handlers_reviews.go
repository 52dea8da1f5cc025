package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
)

type reviewCreateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewUpdateRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type reviewListResponse struct {
	Items   []reviews.Review `json:"items"`
	Total   int              `json:"total"`
	Summary reviews.Summary  `json:"summary"`
}

func writeReviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reviews.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
	case errors.Is(err, reviews.ErrCommentTooLong):
		writeError(w, http.StatusBadRequest, "comment is too long")
	case errors.Is(err, reviews.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "restaurant already reviewed")
	case errors.Is(err, reviews.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, access.MsgReviewNotFound)
	case errors.Is(err, restaurants.ErrRestaurantNotFound):
		writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
	default:
		writeInternalError(w, r, err, "review request failed")
	}
}

func (a *api) handleRestaurantReviews(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")
	if _, err := a.restaurants.Get(r.Context(), restaurantID); err != nil {
		writeReviewError(w, r, err)
		return
	}

	items, err := a.reviews.ListForRestaurant(r.Context(), restaurantID)
	if err != nil {
		writeInternalError(w, r, err, "review list failed")
		return
	}
	writeJSON(w, http.StatusOK, reviewListResponse{
		Items:   items,
		Total:   len(items),
		Summary: reviews.Summarize(items),
	})
}

func (a *api) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	var req reviewCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := a.reviews.Create(r.Context(), identity.UserID, chi.URLParam(r, "restaurantID"), req.Rating, req.Comment)
	if err != nil {
		writeReviewError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (a *api) handleReviewUpdate(w http.ResponseWriter, r *http.Request) {
	review, ok := access.ReviewFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReviewNotFound)
		return
	}

	var req reviewUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := a.reviews.Update(r.Context(), review, reviews.UpdateInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		writeReviewError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *api) handleReviewDelete(w http.ResponseWriter, r *http.Request) {
	review, ok := access.ReviewFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgReviewNotFound)
		return
	}

	if err := a.reviews.Delete(r.Context(), review.ID); err != nil {
		writeReviewError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
