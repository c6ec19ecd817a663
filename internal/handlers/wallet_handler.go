package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

type balanceReader interface {
	Balances(ctx context.Context, userID int64) (*models.Balances, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error)
}

type topupRequester interface {
	RequestTopup(ctx context.Context, userID, amount int64) (*models.TopupRequest, error)
}

type withdrawer interface {
	RequestWithdrawal(ctx context.Context, userID, amount int64, fundPassword string) (*models.WithdrawalRequest, error)
	SetFundPassword(ctx context.Context, userID int64, password string) error
}

type refundRequester interface {
	RequestRefund(ctx context.Context, userID, amount int64, reason string) (*models.SecurityRefundRequest, error)
}

type WalletHandler struct {
	ledger      balanceReader
	topups      topupRequester
	withdrawals withdrawer
	refunds     refundRequester
	validator   *services.ValidationHelper
	logger      *zap.Logger
}

func NewWalletHandler(ledger balanceReader, topups topupRequester, withdrawals withdrawer, refunds refundRequester, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		ledger:      ledger,
		topups:      topups,
		withdrawals: withdrawals,
		refunds:     refunds,
		validator:   services.NewValidationHelper(),
		logger:      logging.OrNop(logger),
	}
}

type amountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type withdrawRequest struct {
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	FundPassword string `json:"fundPassword" validate:"required"`
}

type fundPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=64"`
}

type refundRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=500"`
}

// GetWallet returns the caller's balances
// @Summary Wallet balances
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Balances
// @Router /wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	balances, err := h.ledger.Balances(r.Context(), userID)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, balances)
}

// ListTransactions returns the newest ledger rows
// @Summary Wallet transactions
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 200)"
// @Success 200 {array} models.WalletTransaction
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			services.SendErrorResponse(w, "Invalid limit", http.StatusBadRequest, nil)
			return
		}
		limit = parsed
	}

	transactions, err := h.ledger.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, transactions)
}

// RequestTopup records a deposit for admin approval
// @Summary Request topup
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body amountRequest true "Deposit amount"
// @Success 201 {object} models.TopupRequest
// @Router /wallet/topups [post]
func (h *WalletHandler) RequestTopup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	topup, err := h.topups.RequestTopup(r.Context(), userID, req.Amount)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, topup)
}

// Withdraw debits the commission balance and files a withdrawal request
// @Summary Request withdrawal
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body withdrawRequest true "Withdrawal request"
// @Success 201 {object} models.WithdrawalRequest
// @Failure 403 {object} services.ErrorResponse "Withdrawal not allowed"
// @Failure 422 {object} services.ErrorResponse "Insufficient funds"
// @Router /wallet/withdraw [post]
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req withdrawRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	withdrawal, err := h.withdrawals.RequestWithdrawal(r.Context(), userID, req.Amount, req.FundPassword)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, withdrawal)
}

// SetFundPassword sets the password required for withdrawals
// @Summary Set fund password
// @Tags Wallet
// @Accept json
// @Security BearerAuth
// @Param request body fundPasswordRequest true "New fund password"
// @Success 204
// @Router /wallet/fund-password [post]
func (h *WalletHandler) SetFundPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req fundPasswordRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.withdrawals.SetFundPassword(r.Context(), userID, req.Password); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestRefund files a security deposit refund request
// @Summary Request security refund
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body refundRequest true "Refund request"
// @Success 201 {object} models.SecurityRefundRequest
// @Router /wallet/refunds [post]
func (h *WalletHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req refundRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	refund, err := h.refunds.RequestRefund(r.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, refund)
}
