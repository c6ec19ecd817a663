package handlers

import (
	"context"
	"net/http"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

type topupReviewer interface {
	ApproveTopup(ctx context.Context, topupID int64) (*models.BatchResult, error)
	RejectTopup(ctx context.Context, topupID int64, reason string) error
}

type withdrawalReviewer interface {
	ApproveWithdrawal(ctx context.Context, withdrawalID int64) error
	RejectWithdrawal(ctx context.Context, withdrawalID int64, reason string) (*models.BatchResult, error)
}

type refundReviewer interface {
	ApproveRefund(ctx context.Context, refundID int64) error
	RejectRefund(ctx context.Context, refundID int64, reason string) error
}

type ledgerVerifier interface {
	VerifyAccount(ctx context.Context, userID int64, account models.Account) (*models.AccountDrift, error)
}

// AdminHandler serves the back-office review endpoints.
type AdminHandler struct {
	topups      topupReviewer
	withdrawals withdrawalReviewer
	refunds     refundReviewer
	ledger      ledgerVerifier
	validator   *services.ValidationHelper
	logger      *zap.Logger
}

func NewAdminHandler(topups topupReviewer, withdrawals withdrawalReviewer, refunds refundReviewer, ledger ledgerVerifier, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		topups:      topups,
		withdrawals: withdrawals,
		refunds:     refunds,
		ledger:      ledger,
		validator:   services.NewValidationHelper(),
		logger:      logging.OrNop(logger).Named("admin"),
	}
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ApproveTopup credits a pending topup
// @Summary Approve topup
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topup ID"
// @Success 200 {object} models.BatchResult
// @Failure 409 {object} services.ErrorResponse "Not pending"
// @Router /admin/topups/{id}/approve [post]
func (h *AdminHandler) ApproveTopup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.topups.ApproveTopup(r.Context(), id)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// RejectTopup closes a pending topup without crediting it
// @Summary Reject topup
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path int true "Topup ID"
// @Param request body rejectRequest true "Reason"
// @Success 204
// @Router /admin/topups/{id}/reject [post]
func (h *AdminHandler) RejectTopup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.topups.RejectTopup(r.Context(), id, req.Reason); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveWithdrawal marks a withdrawal as paid out
// @Summary Approve withdrawal
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Success 204
// @Router /admin/withdrawals/{id}/approve [post]
func (h *AdminHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.withdrawals.ApproveWithdrawal(r.Context(), id); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RejectWithdrawal returns the amount to the commission balance
// @Summary Reject withdrawal
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Param request body rejectRequest true "Reason"
// @Success 200 {object} models.BatchResult
// @Router /admin/withdrawals/{id}/reject [post]
func (h *AdminHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	result, err := h.withdrawals.RejectWithdrawal(r.Context(), id, req.Reason)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// ApproveRefund approves a security refund; balances are not touched
// @Summary Approve security refund
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Refund ID"
// @Success 204
// @Router /admin/refunds/{id}/approve [post]
func (h *AdminHandler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.refunds.ApproveRefund(r.Context(), id); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RejectRefund closes a security refund request
// @Summary Reject security refund
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path int true "Refund ID"
// @Param request body rejectRequest true "Reason"
// @Success 204
// @Router /admin/refunds/{id}/reject [post]
func (h *AdminHandler) RejectRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.refunds.RejectRefund(r.Context(), id, req.Reason); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyLedger replays both accounts of a user against their stored balances
// @Summary Verify user ledger
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} models.AccountDrift
// @Router /admin/ledger/{userId}/verify [get]
func (h *AdminHandler) VerifyLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	drifts := make([]*models.AccountDrift, 0, 2)
	for _, account := range []models.Account{models.AccountWallet, models.AccountCommission} {
		drift, err := h.ledger.VerifyAccount(r.Context(), userID, account)
		if err != nil {
			sendError(w, h.logger, err)
			return
		}
		if !drift.Consistent {
			h.logger.Warn("ledger drift", zap.Int64("user_id", userID), zap.String("account", string(account)),
				zap.Int64("stored", drift.StoredBalance), zap.Int64("replayed", drift.ReplayedBalance))
		}
		drifts = append(drifts, drift)
	}
	sendJSON(w, http.StatusOK, drifts)
}
