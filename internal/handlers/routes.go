package handlers

import (
	"github.com/go-chi/chi/v5"
	mW "github.com/taskearn/ledger/internal/middleware"
)

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Auth      *AuthHandler
	Tasks     *TaskHandler
	Positions *PositionHandler
	Wallet    *WalletHandler
	Referrals *ReferralHandler
	Admin     *AdminHandler
}

// Mount registers the API routes on r.
func (h Handlers) Mount(r chi.Router) {
	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)
	r.Get("/positions", h.Positions.ListPositions)

	r.Group(func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/tasks/complete", h.Tasks.CompleteTask)

		r.Get("/positions/status", h.Positions.Status)
		r.Post("/positions/upgrade", h.Positions.Upgrade)

		r.Get("/wallet", h.Wallet.GetWallet)
		r.Get("/wallet/transactions", h.Wallet.ListTransactions)
		r.Post("/wallet/topups", h.Wallet.RequestTopup)
		r.Post("/wallet/withdraw", h.Wallet.Withdraw)
		r.Post("/wallet/fund-password", h.Wallet.SetFundPassword)
		r.Post("/wallet/refunds", h.Wallet.RequestRefund)

		r.Get("/referrals/invite-qr", h.Referrals.InviteQR)
		r.Get("/referrals/downline", h.Referrals.Downline)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mW.RequireAdmin)

			r.Post("/topups/{id}/approve", h.Admin.ApproveTopup)
			r.Post("/topups/{id}/reject", h.Admin.RejectTopup)
			r.Post("/withdrawals/{id}/approve", h.Admin.ApproveWithdrawal)
			r.Post("/withdrawals/{id}/reject", h.Admin.RejectWithdrawal)
			r.Post("/refunds/{id}/approve", h.Admin.ApproveRefund)
			r.Post("/refunds/{id}/reject", h.Admin.RejectRefund)
			r.Get("/ledger/{userId}/verify", h.Admin.VerifyLedger)
		})
	})
}
