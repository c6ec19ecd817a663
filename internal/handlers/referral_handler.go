package handlers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

type referralReader interface {
	InviteQRCode(ctx context.Context, userID int64) ([]byte, string, error)
	Downline(ctx context.Context, userID int64) ([]models.ReferralEdge, error)
}

type ReferralHandler struct {
	referrals referralReader
	logger    *zap.Logger
}

func NewReferralHandler(referrals referralReader, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, logger: logging.OrNop(logger)}
}

// InviteQR returns the caller's invite link and its QR code
// @Summary Invite QR code
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{link=string,qrImage=string}
// @Router /referrals/invite-qr [get]
func (h *ReferralHandler) InviteQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	image, link, err := h.referrals.InviteQRCode(r.Context(), userID)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"link":    link,
		"qrImage": base64.StdEncoding.EncodeToString(image),
	})
}

// Downline lists the users below the caller
// @Summary Referral downline
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReferralEdge
// @Router /referrals/downline [get]
func (h *ReferralHandler) Downline(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	edges, err := h.referrals.Downline(r.Context(), userID)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, edges)
}
