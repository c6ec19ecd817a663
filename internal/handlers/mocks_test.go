package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
)

// mockBackend implements every service interface the handlers depend on.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) DistributeTaskIncome(ctx context.Context, userID, videoID int64, evidence models.WatchEvidence) (*models.DistributionResult, error) {
	args := m.Called(ctx, userID, videoID, evidence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DistributionResult), args.Error(1)
}

func (m *mockBackend) UpgradePosition(ctx context.Context, userID, targetPositionID, depositAmount int64) (*models.UpgradeResult, error) {
	args := m.Called(ctx, userID, targetPositionID, depositAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpgradeResult), args.Error(1)
}

func (m *mockBackend) PositionStatus(ctx context.Context, userID int64) (*models.PositionStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PositionStatus), args.Error(1)
}

func (m *mockBackend) List(ctx context.Context) ([]models.Position, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Position), args.Error(1)
}

func (m *mockBackend) Balances(ctx context.Context, userID int64) (*models.Balances, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balances), args.Error(1)
}

func (m *mockBackend) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

func (m *mockBackend) RequestTopup(ctx context.Context, userID, amount int64) (*models.TopupRequest, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TopupRequest), args.Error(1)
}

func (m *mockBackend) RequestWithdrawal(ctx context.Context, userID, amount int64, fundPassword string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, amount, fundPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockBackend) SetFundPassword(ctx context.Context, userID int64, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

func (m *mockBackend) RequestRefund(ctx context.Context, userID, amount int64, reason string) (*models.SecurityRefundRequest, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SecurityRefundRequest), args.Error(1)
}

func (m *mockBackend) InviteQRCode(ctx context.Context, userID int64) ([]byte, string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *mockBackend) Downline(ctx context.Context, userID int64) ([]models.ReferralEdge, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ReferralEdge), args.Error(1)
}

func (m *mockBackend) ApproveTopup(ctx context.Context, topupID int64) (*models.BatchResult, error) {
	args := m.Called(ctx, topupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchResult), args.Error(1)
}

func (m *mockBackend) RejectTopup(ctx context.Context, topupID int64, reason string) error {
	return m.Called(ctx, topupID, reason).Error(0)
}

func (m *mockBackend) ApproveWithdrawal(ctx context.Context, withdrawalID int64) error {
	return m.Called(ctx, withdrawalID).Error(0)
}

func (m *mockBackend) RejectWithdrawal(ctx context.Context, withdrawalID int64, reason string) (*models.BatchResult, error) {
	args := m.Called(ctx, withdrawalID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchResult), args.Error(1)
}

func (m *mockBackend) ApproveRefund(ctx context.Context, refundID int64) error {
	return m.Called(ctx, refundID).Error(0)
}

func (m *mockBackend) RejectRefund(ctx context.Context, refundID int64, reason string) error {
	return m.Called(ctx, refundID, reason).Error(0)
}

func (m *mockBackend) VerifyAccount(ctx context.Context, userID int64, account models.Account) (*models.AccountDrift, error) {
	args := m.Called(ctx, userID, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountDrift), args.Error(1)
}

func (m *mockBackend) Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResponse), args.Error(1)
}

func (m *mockBackend) Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResponse), args.Error(1)
}

func (m *mockBackend) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
