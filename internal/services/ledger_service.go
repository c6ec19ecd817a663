package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/taskearn/ledger/internal/audit"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/metrics"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

const (
	maxTransactionsPage     = 200
	defaultTransactionsPage = 50
)

// LedgerService is the only writer of user balances. Every movement is a row in
// wallet_transactions carrying the balance of its account after the move.
type LedgerService struct {
	db      *sql.DB
	audit   *audit.AuditLogger
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLedgerService(db *sql.DB, auditLogger *audit.AuditLogger, logger *zap.Logger, m *metrics.Metrics) *LedgerService {
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(logger)
	}
	return &LedgerService{
		db:      db,
		audit:   auditLogger,
		logger:  logging.OrNop(logger).Named("ledger"),
		metrics: m,
		now:     time.Now,
	}
}

// ApplyBatch applies every entry of batch in its own transaction, or none of them.
func (s *LedgerService) ApplyBatch(ctx context.Context, batch models.Batch) (*models.BatchResult, error) {
	started := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch %s: %w", batch.ReferenceID, err)
	}
	defer tx.Rollback()

	result, err := s.ApplyBatchTx(ctx, tx, batch)
	if err != nil {
		s.fail(batch.ReferenceID, started, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		err = fmt.Errorf("commit batch %s: %w", batch.ReferenceID, err)
		s.fail(batch.ReferenceID, started, err)
		return nil, err
	}

	s.metrics.ObserveBatch("applied", started)
	s.Committed(result)
	return result, nil
}

// ApplyBatchTx applies batch inside tx. The caller commits and then calls Committed.
func (s *LedgerService) ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch models.Batch) (*models.BatchResult, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	// Lock accounts in ascending id order to prevent deadlocks
	accounts := make(map[int64]*models.LedgerAccount)
	userIDs := batch.UserIDs()
	for _, userID := range userIDs {
		account, err := s.lockAccount(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		accounts[userID] = account
	}

	applied, err := s.referenceApplied(ctx, tx, batch.ReferenceID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, domain.NewBatchAlreadyAppliedError(batch.ReferenceID)
	}

	createdAt := s.now().UTC()
	result := &models.BatchResult{
		ReferenceID:  batch.ReferenceID,
		Transactions: make([]models.WalletTransaction, 0, len(batch.Entries)),
		Balances:     make(map[int64]models.Balances, len(accounts)),
	}

	for _, entry := range batch.Entries {
		account := accounts[entry.UserID]
		before := account.Balances.Get(entry.Type.Account())
		after := account.Apply(entry.Type, entry.Amount)
		if after < 0 {
			return nil, domain.NewInsufficientFundsError(entry.UserID, string(entry.Type.Account()), before, -entry.Amount)
		}

		txn := models.WalletTransaction{
			UserID:       entry.UserID,
			Type:         entry.Type,
			Amount:       entry.Amount,
			BalanceAfter: after,
			Description:  entry.Description,
			ReferenceID:  batch.ReferenceID,
			Status:       models.TxStatusCompleted,
			CreatedAt:    createdAt,
		}
		if err := s.createTransaction(ctx, tx, &txn); err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, txn)
	}

	for _, userID := range userIDs {
		account := accounts[userID]
		if err := s.updateAccountBalance(ctx, tx, account, createdAt); err != nil {
			return nil, err
		}
		result.Balances[userID] = account.Balances
	}

	return result, nil
}

// Committed records a batch whose transaction has committed.
func (s *LedgerService) Committed(result *models.BatchResult) {
	if result == nil {
		return
	}
	for _, txn := range result.Transactions {
		s.metrics.AddAmount(string(txn.Type), txn.Amount)
	}
	s.audit.LogBatch(result)
}

func (s *LedgerService) fail(referenceID string, started time.Time, err error) {
	outcome := "failed"
	switch {
	case errors.Is(err, domain.ErrBatchAlreadyApplied):
		outcome = "duplicate"
	case errors.Is(err, domain.ErrInsufficientFunds):
		outcome = "insufficient_funds"
	default:
		s.logger.Error("ledger batch failed", zap.String("reference_id", referenceID), zap.Error(err))
	}
	s.metrics.ObserveBatch(outcome, started)
	s.audit.LogBatchFailure(referenceID, err)
}

func validateBatch(batch models.Batch) error {
	if batch.ReferenceID == "" {
		return domain.NewValidationError("batch reference id is required")
	}
	if len(batch.Entries) == 0 {
		return domain.NewValidationError("batch has no entries")
	}
	for i, e := range batch.Entries {
		if !e.Type.Valid() {
			return domain.NewValidationError(fmt.Sprintf("entry %d: unknown transaction type %q", i, e.Type))
		}
		if e.Amount == 0 {
			return domain.NewValidationError(fmt.Sprintf("entry %d: zero amount", i))
		}
		if e.Type.IsDebit() != (e.Amount < 0) {
			return domain.NewValidationError(fmt.Sprintf("entry %d: sign of %d does not match %s", i, e.Amount, e.Type))
		}
		if e.UserID <= 0 {
			return domain.NewValidationError(fmt.Sprintf("entry %d: invalid user id", i))
		}
	}
	return nil
}

func (s *LedgerService) lockAccount(ctx context.Context, tx *sql.Tx, userID int64) (*models.LedgerAccount, error) {
	account := models.LedgerAccount{UserID: userID}
	err := tx.QueryRowContext(ctx, `
		SELECT id, wallet_balance, commission_balance, total_earnings, version
		FROM users
		WHERE id = $1
		FOR UPDATE`, userID).Scan(
		&account.UserID,
		&account.Balances.Wallet,
		&account.Balances.Commission,
		&account.Balances.TotalEarnings,
		&account.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("lock user %d: %w", userID, err)
	}
	return &account, nil
}

func (s *LedgerService) referenceApplied(ctx context.Context, q queryer, referenceID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM wallet_transactions WHERE reference_id = $1)`,
		referenceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reference %s: %w", referenceID, err)
	}
	return exists, nil
}

func (s *LedgerService) createTransaction(ctx context.Context, tx *sql.Tx, txn *models.WalletTransaction) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (user_id, type, amount, balance_after, description, reference_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		txn.UserID, string(txn.Type), txn.Amount, txn.BalanceAfter, txn.Description,
		txn.ReferenceID, string(txn.Status), txn.CreatedAt).Scan(&txn.ID)
	if isUniqueViolation(err) {
		return domain.NewBatchAlreadyAppliedError(txn.ReferenceID)
	}
	if err != nil {
		return fmt.Errorf("insert %s for user %d: %w", txn.Type, txn.UserID, err)
	}
	return nil
}

func (s *LedgerService) updateAccountBalance(ctx context.Context, tx *sql.Tx, account *models.LedgerAccount, at time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET wallet_balance = $1, commission_balance = $2, total_earnings = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		account.Balances.Wallet, account.Balances.Commission, account.Balances.TotalEarnings,
		at, account.UserID, account.Version)
	if err != nil {
		return fmt.Errorf("update balances of user %d: %w", account.UserID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed for user %d", account.UserID)
	}

	account.Version++
	return nil
}

// VerifyAccount replays the user's log for account and compares every balance_after
// snapshot and the stored balance against the running sum.
func (s *LedgerService) VerifyAccount(ctx context.Context, userID int64, account models.Account) (*models.AccountDrift, error) {
	if account != models.AccountWallet && account != models.AccountCommission {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown account %q", account))
	}

	user, err := loadUser(ctx, s.db, userID, false)
	if err != nil {
		return nil, err
	}

	types := models.TypesForAccount(account)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, balance_after
		FROM wallet_transactions
		WHERE user_id = $1 AND type = ANY($2)
		ORDER BY id`, userID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("replay user %d: %w", userID, err)
	}
	defer rows.Close()

	drift := &models.AccountDrift{
		UserID:        userID,
		Account:       account,
		StoredBalance: user.Balances().Get(account),
	}
	// Every earning type lives in the commission account, so its replay also rebuilds total_earnings.
	checkEarnings := account == models.AccountCommission
	var replayedEarnings int64
	for rows.Next() {
		var (
			id, amount, balanceAfter int64
			txType                   models.TransactionType
		)
		if err := rows.Scan(&id, &txType, &amount, &balanceAfter); err != nil {
			return nil, err
		}
		drift.Rows++
		drift.ReplayedBalance += amount
		if txType.CountsAsEarnings() {
			replayedEarnings += amount
		}
		if drift.FirstBadRowID == nil && drift.ReplayedBalance != balanceAfter {
			bad := id
			drift.FirstBadRowID = &bad
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drift.Consistent = drift.FirstBadRowID == nil && drift.ReplayedBalance == drift.StoredBalance
	if checkEarnings {
		stored := user.TotalEarnings
		drift.StoredEarnings = &stored
		drift.ReplayedEarnings = &replayedEarnings
		drift.Consistent = drift.Consistent && stored == replayedEarnings
	}
	if !drift.Consistent {
		s.logger.Warn("ledger drift detected",
			zap.Int64("user_id", userID),
			zap.String("account", string(account)),
			zap.Int64("stored", drift.StoredBalance),
			zap.Int64("replayed", drift.ReplayedBalance),
			zap.Int64("stored_earnings", user.TotalEarnings),
			zap.Int64("replayed_earnings", replayedEarnings),
		)
	}
	return drift, nil
}

// ListTransactions returns the newest rows first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = defaultTransactionsPage
	}
	if limit > maxTransactionsPage {
		limit = maxTransactionsPage
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, balance_after, description, reference_id, status, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions of user %d: %w", userID, err)
	}
	defer rows.Close()

	transactions := []models.WalletTransaction{}
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.Description, &t.ReferenceID, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *LedgerService) Balances(ctx context.Context, userID int64) (*models.Balances, error) {
	user, err := loadUser(ctx, s.db, userID, false)
	if err != nil {
		return nil, err
	}
	balances := user.Balances()
	return &balances, nil
}
