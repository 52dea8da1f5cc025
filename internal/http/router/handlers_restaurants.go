package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
)

type restaurantDTO struct {
	restaurants.Restaurant
	ManagedByViewer bool `json:"managed_by_viewer"`
}

type restaurantListResponse struct {
	Items []restaurantDTO `json:"items"`
	Total int             `json:"total"`
}

type restaurantDetailResponse struct {
	Restaurant   restaurantDTO   `json:"restaurant"`
	Rating       reviews.Summary `json:"rating"`
	ViewerReview *reviews.Review `json:"viewer_review,omitempty"`
}

type restaurantCreateRequest struct {
	Name        string `json:"name"`
	Cuisine     string `json:"cuisine"`
	Address     string `json:"address"`
	Description string `json:"description"`
	StaffID     string `json:"staff_id"`
}

type restaurantUpdateRequest struct {
	Name        *string `json:"name"`
	Cuisine     *string `json:"cuisine"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
}

type reservationListResponse struct {
	Items []reservations.Reservation `json:"items"`
	Total int                        `json:"total"`
}

func toRestaurantDTO(restaurant restaurants.Restaurant, viewer auth.Identity, hasViewer bool) restaurantDTO {
	return restaurantDTO{
		Restaurant:      restaurant,
		ManagedByViewer: hasViewer && identifier.Equal(viewer.UserID, restaurant.StaffID),
	}
}

func (a *api) handleRestaurantsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.restaurants.List(r.Context(), restaurants.ListFilter{
		Cuisine: strings.TrimSpace(r.URL.Query().Get("cuisine")),
	})
	if err != nil {
		writeInternalError(w, r, err, "restaurant list failed")
		return
	}

	viewer, hasViewer := auth.IdentityFromContext(r.Context())
	response := restaurantListResponse{Items: make([]restaurantDTO, 0, len(items)), Total: len(items)}
	for _, restaurant := range items {
		response.Items = append(response.Items, toRestaurantDTO(restaurant, viewer, hasViewer))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *api) handleRestaurantDetail(w http.ResponseWriter, r *http.Request) {
	restaurant, err := a.restaurants.Get(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		if errors.Is(err, restaurants.ErrRestaurantNotFound) {
			writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
			return
		}
		writeInternalError(w, r, err, "restaurant lookup failed")
		return
	}

	summary, err := a.reviews.Summary(r.Context(), restaurant.ID)
	if err != nil {
		writeInternalError(w, r, err, "rating summary failed")
		return
	}

	viewer, hasViewer := auth.IdentityFromContext(r.Context())
	response := restaurantDetailResponse{
		Restaurant: toRestaurantDTO(restaurant, viewer, hasViewer),
		Rating:     summary,
	}
	if hasViewer {
		review, found, err := a.reviews.ForCustomer(r.Context(), viewer.UserID, restaurant.ID)
		if err != nil {
			writeInternalError(w, r, err, "viewer review lookup failed")
			return
		}
		if found {
			response.ViewerReview = &review
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (a *api) handleRestaurantCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	var req restaurantCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	staffID := identity.UserID
	ownerID := ""
	if identity.Role == auth.RoleOwner {
		ownerID = identity.UserID
		if strings.TrimSpace(req.StaffID) != "" {
			staffID = strings.TrimSpace(req.StaffID)
		}
	} else if strings.TrimSpace(req.StaffID) != "" && !identifier.Equal(req.StaffID, identity.UserID) {
		writeError(w, http.StatusForbidden, "staff can only create restaurants they manage")
		return
	}

	restaurant, err := a.restaurants.Create(r.Context(), restaurants.CreateInput{
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		Description: req.Description,
		StaffID:     staffID,
		OwnerID:     ownerID,
	})
	if err != nil {
		if errors.Is(err, restaurants.ErrInvalidRestaurant) {
			writeError(w, http.StatusBadRequest, "restaurant name is required")
			return
		}
		writeInternalError(w, r, err, "restaurant create failed")
		return
	}

	a.recordAuditLog(r, auditlog.ActionRestaurantCreate, auditlog.TargetRestaurant, restaurant.ID, map[string]string{"staff_id": restaurant.StaffID})
	writeJSON(w, http.StatusCreated, toRestaurantDTO(restaurant, identity, true))
}

func (a *api) handleRestaurantUpdate(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := access.RestaurantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
		return
	}

	var req restaurantUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := a.restaurants.Update(r.Context(), restaurant, restaurants.UpdateInput{
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, restaurants.ErrInvalidRestaurant):
			writeError(w, http.StatusBadRequest, "restaurant name is required")
		case errors.Is(err, restaurants.ErrRestaurantNotFound):
			writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
		default:
			writeInternalError(w, r, err, "restaurant update failed")
		}
		return
	}

	a.recordAuditLog(r, auditlog.ActionRestaurantUpdate, auditlog.TargetRestaurant, updated.ID, nil)
	viewer, _ := auth.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, toRestaurantDTO(updated, viewer, true))
}

func (a *api) handleRestaurantDelete(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := access.RestaurantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
		return
	}

	if err := a.restaurants.Delete(r.Context(), restaurant.ID); err != nil {
		if errors.Is(err, restaurants.ErrRestaurantNotFound) {
			writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
			return
		}
		writeInternalError(w, r, err, "restaurant delete failed")
		return
	}

	a.recordAuditLog(r, auditlog.ActionRestaurantDelete, auditlog.TargetRestaurant, restaurant.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleRestaurantReservations(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := access.RestaurantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, access.MsgRestaurantNotFound)
		return
	}

	items, err := a.reservations.ListForRestaurant(r.Context(), restaurant.ID)
	if err != nil {
		writeInternalError(w, r, err, "restaurant reservations failed")
		return
	}
	writeJSON(w, http.StatusOK, reservationListResponse{Items: items, Total: len(items)})
}
