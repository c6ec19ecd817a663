package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

// TopupService moves approved deposits into the wallet balance. It is the only path that
// credits the wallet.
type TopupService struct {
	db           *sql.DB
	ledger       Ledger
	bonusPercent decimal.Decimal
	logger       *zap.Logger
	now          func() time.Time
}

func NewTopupService(db *sql.DB, ledger Ledger, bonusPercent float64, logger *zap.Logger) *TopupService {
	return &TopupService{
		db:           db,
		ledger:       ledger,
		bonusPercent: decimal.NewFromFloat(bonusPercent),
		logger:       logging.OrNop(logger).Named("topup"),
		now:          time.Now,
	}
}

// RequestTopup records a deposit the user claims to have made. Nothing is credited until approval.
func (s *TopupService) RequestTopup(ctx context.Context, userID, amount int64) (*models.TopupRequest, error) {
	if amount <= 0 {
		return nil, domain.NewValidationError("amount must be positive")
	}
	req := &models.TopupRequest{
		UserID:    userID,
		Amount:    amount,
		Status:    models.RequestPending,
		CreatedAt: s.now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO topup_requests (user_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		req.UserID, req.Amount, string(req.Status), req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return nil, fmt.Errorf("create topup request: %w", err)
	}
	return req, nil
}

// ApproveTopup credits TOPUP, plus TOPUP_BONUS to the commission balance when a bonus is
// configured, and marks the request approved in the same transaction.
func (s *TopupService) ApproveTopup(ctx context.Context, topupID int64) (*models.BatchResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := lockTopup(ctx, tx, topupID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, domain.NewConflictError(fmt.Sprintf("topup %d is %s", topupID, req.Status))
	}

	entries := []models.Entry{{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        models.TxTopup,
		Description: fmt.Sprintf("Topup %d approved", req.ID),
	}}
	if bonus := s.bonusFor(req.Amount); bonus > 0 {
		entries = append(entries, models.Entry{
			UserID:      req.UserID,
			Amount:      bonus,
			Type:        models.TxTopupBonus,
			Description: fmt.Sprintf("Bonus on topup %d", req.ID),
		})
	}

	result, err := s.ledger.ApplyBatchTx(ctx, tx, models.Batch{
		ReferenceID: fmt.Sprintf("TOPUP-%d", req.ID),
		Entries:     entries,
	})
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE topup_requests SET status = $1, processed_at = $2 WHERE id = $3`,
		string(models.RequestApproved), s.now().UTC(), req.ID); err != nil {
		return nil, fmt.Errorf("approve topup %d: %w", req.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit topup %d: %w", req.ID, err)
	}
	s.ledger.Committed(result)

	s.logger.Info("topup approved", zap.Int64("topup_id", req.ID), zap.Int64("user_id", req.UserID), zap.Int64("amount", req.Amount))
	return result, nil
}

func (s *TopupService) RejectTopup(ctx context.Context, topupID int64, reason string) error {
	return closePending(ctx, s.db, "topup_requests", topupID, models.RequestRejected, reason, s.now().UTC())
}

func (s *TopupService) bonusFor(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(s.bonusPercent).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}

func lockTopup(ctx context.Context, tx *sql.Tx, topupID int64) (*models.TopupRequest, error) {
	var (
		req       models.TopupRequest
		processed sql.NullTime
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount, status, reason, created_at, processed_at
		FROM topup_requests
		WHERE id = $1
		FOR UPDATE`, topupID).Scan(&req.ID, &req.UserID, &req.Amount, &req.Status, &req.Reason, &req.CreatedAt, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("topup %d", topupID))
	}
	if err != nil {
		return nil, fmt.Errorf("lock topup %d: %w", topupID, err)
	}
	if processed.Valid {
		req.ProcessedAt = &processed.Time
	}
	return &req, nil
}

// closePending moves a PENDING request row to status. table is one of the fixed request tables.
func closePending(ctx context.Context, q queryer, table string, id int64, status models.RequestStatus, reason string, at time.Time) error {
	result, err := q.ExecContext(ctx, `
		UPDATE `+table+`
		SET status = $1, reason = $2, processed_at = $3
		WHERE id = $4 AND status = 'PENDING'`,
		string(status), reason, at, id)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", table, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewConflictError(fmt.Sprintf("%s %d is not pending", table, id))
	}
	return nil
}
