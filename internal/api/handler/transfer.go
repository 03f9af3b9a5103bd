package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/observability"
	"github.com/tenmoapp/tenmo/internal/service"
)

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// ListTransfers returns the actor's full history, oldest first.
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	transfers, err := h.svc.ListTransfers(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list transfers failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/list-failed", "Failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []domain.Transfer{}
	}
	RespondJSON(w, http.StatusOK, transfers)
}

// ListPending returns the requests awaiting the actor's approval.
func (h *TransferHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	transfers, err := h.svc.ListPending(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list pending transfers failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/list-failed", "Failed to list pending transfers")
		return
	}
	if transfers == nil {
		transfers = []domain.Transfer{}
	}
	RespondJSON(w, http.StatusOK, transfers)
}

// GetTransfer returns one transfer; only its participants may see it.
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	transferID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transfer-id", "Invalid transfer ID")
		return
	}

	transfer, err := h.svc.GetTransferForUser(r.Context(), transferID, actorID)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("get transfer failed", zap.Error(err), zap.String("transfer_id", transferID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/read-failed", "Failed to get transfer")
		return
	}
	RespondJSON(w, http.StatusOK, transfer)
}

// Send moves bucks from the actor to another user immediately.
func (h *TransferHandler) Send(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		ToUserID string       `json:"to_user_id"`
		Amount   domain.Money `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid to_user_id")
		return
	}

	transfer, err := h.svc.CreateSend(r.Context(), actorID, actorID, toUserID, req.Amount)
	if err != nil {
		observability.IncrementTransfer("send", "rejected")
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("send failed", zap.Error(err), zap.String("from", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/send-failed", "Failed to send")
		return
	}

	observability.IncrementTransfer("send", "settled")
	RespondJSON(w, http.StatusCreated, transfer)
}

// Request records a proposal that another user pay the actor.
func (h *TransferHandler) Request(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		FromUserID string       `json:"from_user_id"`
		Amount     domain.Money `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	fromUserID, err := uuid.Parse(req.FromUserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid from_user_id")
		return
	}

	transfer, err := h.svc.CreateRequest(r.Context(), actorID, fromUserID, actorID, req.Amount)
	if err != nil {
		observability.IncrementTransfer("request", "rejected")
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("request failed", zap.Error(err), zap.String("to", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/request-failed", "Failed to create request")
		return
	}

	observability.IncrementTransfer("request", "created")
	RespondJSON(w, http.StatusCreated, transfer)
}

// Resolve applies the actor's approve/reject decision to a pending request.
func (h *TransferHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	transferID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transfer-id", "Invalid transfer ID")
		return
	}

	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	decision := domain.TransferStatus(req.Decision)
	if decision != domain.TransferStatusApproved && decision != domain.TransferStatusRejected {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-decision", "decision must be APPROVED or REJECTED")
		return
	}

	transfer, err := h.svc.ResolveRequest(r.Context(), transferID, actorID, decision)
	if err != nil {
		observability.IncrementTransfer("resolve", "rejected")
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("resolve failed", zap.Error(err), zap.String("transfer_id", transferID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/resolve-failed", "Failed to resolve request")
		return
	}

	observability.IncrementTransfer("resolve", string(transfer.Status))
	RespondJSON(w, http.StatusOK, transfer)
}
