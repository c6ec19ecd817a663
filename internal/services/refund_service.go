package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

// RefundService tracks security deposit refunds. Refunds live apart from the ledger and never
// move a balance.
type RefundService struct {
	db  *sql.DB
	now func() time.Time
}

func NewRefundService(db *sql.DB) *RefundService {
	return &RefundService{db: db, now: time.Now}
}

func (s *RefundService) RequestRefund(ctx context.Context, userID, amount int64, reason string) (*models.SecurityRefundRequest, error) {
	if amount <= 0 {
		return nil, domain.NewValidationError("amount must be positive")
	}
	req := &models.SecurityRefundRequest{
		UserID:    userID,
		Amount:    amount,
		Status:    models.RequestPending,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO security_refund_requests (user_id, amount, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		req.UserID, req.Amount, string(req.Status), req.Reason, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return nil, fmt.Errorf("create refund request: %w", err)
	}
	return req, nil
}

func (s *RefundService) ApproveRefund(ctx context.Context, refundID int64) error {
	return closePending(ctx, s.db, "security_refund_requests", refundID, models.RequestApproved, "", s.now().UTC())
}

func (s *RefundService) RejectRefund(ctx context.Context, refundID int64, reason string) error {
	return closePending(ctx, s.db, "security_refund_requests", refundID, models.RequestRejected, reason, s.now().UTC())
}

// TotalApprovedRefunds sums every approved refund of the user.
func (s *RefundService) TotalApprovedRefunds(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM security_refund_requests
		WHERE user_id = $1 AND status = $2`,
		userID, string(models.RequestApproved)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum refunds of user %d: %w", userID, err)
	}
	return total, nil
}
