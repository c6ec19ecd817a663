package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

const minFundPasswordLength = 6

// WithdrawalService pays out of the commission balance. The debit is taken when the request
// is created and given back if the request is rejected.
type WithdrawalService struct {
	db        *sql.DB
	ledger    Ledger
	events    EventPublisher
	minAmount int64
	logger    *zap.Logger
	now       func() time.Time
}

func NewWithdrawalService(db *sql.DB, ledger Ledger, events EventPublisher, minAmount int64, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		db:        db,
		ledger:    ledger,
		events:    events,
		minAmount: minAmount,
		logger:    logging.OrNop(logger).Named("withdrawal"),
		now:       time.Now,
	}
}

func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID, amount int64, fundPassword string) (*models.WithdrawalRequest, error) {
	if amount < s.minAmount {
		return nil, domain.NewValidationError(fmt.Sprintf("minimum withdrawal is %d", s.minAmount))
	}

	user, err := loadUser(ctx, s.db, userID, false)
	if err != nil {
		return nil, err
	}
	if err := checkWithdrawer(user); err != nil {
		return nil, err
	}
	if user.FundPassword == nil {
		return nil, domain.NewWithdrawalNotAllowedError("fund password is not set")
	}
	if !verifyPassword(fundPassword, *user.FundPassword) {
		return nil, domain.NewWithdrawalNotAllowedError("invalid fund password")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Re-check under the lock; an admin may have banned the user meanwhile.
	locked, err := loadUser(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	if err := checkWithdrawer(locked); err != nil {
		return nil, err
	}

	req := &models.WithdrawalRequest{
		UserID:      userID,
		Amount:      amount,
		Status:      models.RequestPending,
		ReferenceID: "WITHDRAWAL-" + uuid.NewString(),
		CreatedAt:   s.now().UTC(),
	}
	result, err := s.ledger.ApplyBatchTx(ctx, tx, models.Batch{
		ReferenceID: req.ReferenceID,
		Entries: []models.Entry{{
			UserID:      userID,
			Amount:      -amount,
			Type:        models.TxWithdrawal,
			Description: "Withdrawal request",
		}},
	})
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO withdrawal_requests (user_id, amount, status, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		req.UserID, req.Amount, string(req.Status), req.ReferenceID, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return nil, fmt.Errorf("create withdrawal request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdrawal: %w", err)
	}
	s.ledger.Committed(result)

	publish(ctx, s.events, s.logger, newEvent(models.EventWithdrawalRequested, userID, req.ReferenceID, map[string]any{
		"withdrawalId": req.ID,
		"amount":       amount,
	}, s.now()))
	return req, nil
}

// ApproveWithdrawal marks a pending request as paid out. The balance was debited at request time.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID int64) error {
	return closePending(ctx, s.db, "withdrawal_requests", withdrawalID, models.RequestApproved, "", s.now().UTC())
}

// RejectWithdrawal returns the debited amount with WITHDRAWAL_REVERSAL.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID int64, reason string) (*models.BatchResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var req models.WithdrawalRequest
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount, status, reference_id
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE`, withdrawalID).Scan(&req.ID, &req.UserID, &req.Amount, &req.Status, &req.ReferenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("withdrawal %d", withdrawalID))
	}
	if err != nil {
		return nil, fmt.Errorf("lock withdrawal %d: %w", withdrawalID, err)
	}
	if req.Status != models.RequestPending {
		return nil, domain.NewConflictError(fmt.Sprintf("withdrawal %d is %s", withdrawalID, req.Status))
	}

	result, err := s.ledger.ApplyBatchTx(ctx, tx, models.Batch{
		ReferenceID: req.ReferenceID + "-REVERSAL",
		Entries: []models.Entry{{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Type:        models.TxWithdrawalReversal,
			Description: fmt.Sprintf("Withdrawal %d rejected", req.ID),
		}},
	})
	if err != nil {
		return nil, err
	}

	if err := closePending(ctx, tx, "withdrawal_requests", req.ID, models.RequestRejected, reason, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdrawal reversal: %w", err)
	}
	s.ledger.Committed(result)
	return result, nil
}

func (s *WithdrawalService) SetFundPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < minFundPasswordLength {
		return domain.NewValidationError(fmt.Sprintf("fund password must be at least %d characters", minFundPasswordLength))
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET fund_password = $1, updated_at = $2 WHERE id = $3`,
		hashed, s.now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set fund password of user %d: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("user %d", userID))
	}
	return nil
}

// checkWithdrawer blocks interns and inactive accounts. Interns still earn; they only cannot cash out.
func checkWithdrawer(user *models.User) error {
	if user.Status != models.UserStatusActive {
		return domain.NewWithdrawalNotAllowedError("account is not active")
	}
	if user.IsIntern {
		return domain.NewWithdrawalNotAllowedError("interns cannot withdraw")
	}
	return nil
}
