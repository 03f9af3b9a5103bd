package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// GetBalance returns the authenticated user's account.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	account, err := h.svc.GetBalance(r.Context(), actorID)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("get balance failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/balance-read-failed", "Failed to get balance")
		return
	}

	RespondJSON(w, http.StatusOK, account)
}
