package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/rewards"
)

type rewardCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CostPoints  int64  `json:"cost_points"`
}

type rewardListResponse struct {
	Items []rewards.Reward `json:"items"`
	Total int              `json:"total"`
}

type rewardRedeemResponse struct {
	Entry   rewards.LedgerEntry `json:"entry"`
	Balance int64               `json:"balance"`
}

func (a *api) handleRewardsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.rewards.ListRewards(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "reward list failed")
		return
	}
	writeJSON(w, http.StatusOK, rewardListResponse{Items: items, Total: len(items)})
}

func (a *api) handleRewardCreate(w http.ResponseWriter, r *http.Request) {
	var req rewardCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reward, err := a.rewards.CreateReward(r.Context(), req.Name, req.Description, req.CostPoints)
	if err != nil {
		if errors.Is(err, rewards.ErrInvalidReward) {
			writeError(w, http.StatusBadRequest, "reward needs a name and a positive cost")
			return
		}
		writeInternalError(w, r, err, "reward create failed")
		return
	}

	a.recordAuditLog(r, auditlog.ActionRewardCreate, auditlog.TargetReward, reward.ID, map[string]int64{"cost_points": reward.CostPoints})
	writeJSON(w, http.StatusCreated, reward)
}

func (a *api) handleRewardsBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	account, err := a.rewards.Account(r.Context(), identity.UserID)
	if err != nil {
		writeInternalError(w, r, err, "reward balance failed")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *api) handleRewardRedeem(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	entry, err := a.rewards.Redeem(r.Context(), identity.UserID, chi.URLParam(r, "rewardID"))
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrRewardNotFound):
			writeError(w, http.StatusNotFound, "reward not found")
		case errors.Is(err, rewards.ErrRewardInactive):
			writeError(w, http.StatusConflict, "reward is not available")
		case errors.Is(err, rewards.ErrInsufficientPoints):
			writeError(w, http.StatusConflict, "insufficient points")
		default:
			writeInternalError(w, r, err, "reward redeem failed")
		}
		return
	}

	account, err := a.rewards.Account(r.Context(), identity.UserID)
	if err != nil {
		writeInternalError(w, r, err, "reward balance failed")
		return
	}
	writeJSON(w, http.StatusOK, rewardRedeemResponse{Entry: entry, Balance: account.Balance})
}
