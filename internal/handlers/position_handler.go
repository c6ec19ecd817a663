package handlers

import (
	"context"
	"net/http"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

type positionUpgrader interface {
	UpgradePosition(ctx context.Context, userID, targetPositionID, depositAmount int64) (*models.UpgradeResult, error)
}

type positionStatusReader interface {
	PositionStatus(ctx context.Context, userID int64) (*models.PositionStatus, error)
}

type positionLister interface {
	List(ctx context.Context) ([]models.Position, error)
}

type PositionHandler struct {
	upgrades  positionUpgrader
	gate      positionStatusReader
	catalog   positionLister
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewPositionHandler(upgrades positionUpgrader, gate positionStatusReader, catalog positionLister, logger *zap.Logger) *PositionHandler {
	return &PositionHandler{
		upgrades:  upgrades,
		gate:      gate,
		catalog:   catalog,
		validator: services.NewValidationHelper(),
		logger:    logging.OrNop(logger),
	}
}

type upgradeRequest struct {
	TargetPositionID int64 `json:"targetPositionId" validate:"required,gt=0"`
	DepositAmount    int64 `json:"depositAmount" validate:"required,gt=0"`
}

// ListPositions returns the position catalog
// @Summary List positions
// @Tags Positions
// @Produce json
// @Success 200 {array} models.Position
// @Router /positions [get]
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.catalog.List(r.Context())
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, positions)
}

// Upgrade moves the caller to a higher position
// @Summary Upgrade position
// @Description Debits the deposit from the wallet, switches position and pays A/B/C referral rewards.
// @Description When only the rewards fail the upgrade still stands and the rewards are retried.
// @Tags Positions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body upgradeRequest true "Upgrade request"
// @Success 200 {object} models.UpgradeResult
// @Success 202 {object} models.UpgradeResult "Upgraded; rewards queued"
// @Failure 404 {object} services.ErrorResponse "Unknown position"
// @Failure 422 {object} services.ErrorResponse "Insufficient funds or invalid upgrade"
// @Router /positions/upgrade [post]
func (h *PositionHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req upgradeRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	result, err := h.upgrades.UpgradePosition(r.Context(), userID, req.TargetPositionID, req.DepositAmount)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	// The upgrade committed; only the rewards are pending.
	if result.CommissionStatus == models.CommissionQueued {
		sendJSON(w, http.StatusAccepted, result)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// Status reports the caller's position and today's task progress
// @Summary Position status
// @Tags Positions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PositionStatus
// @Router /positions/status [get]
func (h *PositionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.gate.PositionStatus(r.Context(), userID)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, status)
}
