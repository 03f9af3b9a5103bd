package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tenmoapp/tenmo/internal/api/middleware"
	"github.com/tenmoapp/tenmo/internal/api/problem"
	"github.com/tenmoapp/tenmo/internal/domain"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, errors.New("invalid user_id in auth context")
	}

	return actorID, nil
}

// respondDomainError translates the domain error taxonomy into problem
// responses. It returns false when the error is not a business outcome and
// the caller should treat it as an internal failure.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		RespondError(w, r, http.StatusNotFound, "user/not-found", "user not found")
	case errors.Is(err, domain.ErrAccountNotFound):
		RespondError(w, r, http.StatusNotFound, "account/not-found", "account not found")
	case errors.Is(err, domain.ErrTransferNotFound):
		RespondError(w, r, http.StatusNotFound, "transfer/not-found", "transfer not found")
	case errors.Is(err, domain.ErrInvalidAmount):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/invalid-amount", "amount must be positive")
	case errors.Is(err, domain.ErrSameAccount):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/same-account", "cannot transfer to the same account")
	case errors.Is(err, domain.ErrInsufficientFunds):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/insufficient-funds", "insufficient funds")
	case errors.Is(err, domain.ErrUnauthorized):
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
	case errors.Is(err, domain.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, "transfer/invalid-transition", "transfer is not pending")
	case errors.Is(err, domain.ErrUsernameTaken):
		RespondError(w, r, http.StatusConflict, "user/username-taken", "username already taken")
	case errors.Is(err, domain.ErrAccountExists):
		RespondError(w, r, http.StatusConflict, "account/already-exists", "account already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "invalid username or password")
	default:
		return false
	}
	return true
}
