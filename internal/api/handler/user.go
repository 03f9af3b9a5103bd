package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/store"
)

// UserHandler serves the user directory used to pick a send or request
// counterparty.
type UserHandler struct {
	users store.UserStore
}

func NewUserHandler(users store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		zap.L().Error("list users failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "user/list-failed", "Failed to list users")
		return
	}
	RespondJSON(w, http.StatusOK, users)
}
