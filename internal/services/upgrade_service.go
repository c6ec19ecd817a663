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
	"github.com/taskearn/ledger/internal/metrics"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

const distributionUpgrade = "position_upgrade"

// UpgradeService moves a user to a higher position. The wallet debit, the position change and
// a PENDING payout row commit together; the referral rewards are a second unit that is paid at
// most once per (user, position) and is left to the repair job when it fails.
type UpgradeService struct {
	db             *sql.DB
	ledger         Ledger
	hierarchy      AncestorResolver
	rates          RateTable
	positions      PositionLookup
	queue          RetryQueue
	events         EventPublisher
	logger         *zap.Logger
	metrics        *metrics.Metrics
	initialBackoff time.Duration
	now            func() time.Time
}

type UpgradeDeps struct {
	DB             *sql.DB
	Ledger         Ledger
	Hierarchy      AncestorResolver
	Rates          RateTable
	Positions      PositionLookup
	Queue          RetryQueue
	Events         EventPublisher
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	InitialBackoff time.Duration
}

func NewUpgradeService(deps UpgradeDeps) *UpgradeService {
	return &UpgradeService{
		db:             deps.DB,
		ledger:         deps.Ledger,
		hierarchy:      deps.Hierarchy,
		rates:          deps.Rates,
		positions:      deps.Positions,
		queue:          deps.Queue,
		events:         deps.Events,
		logger:         logging.OrNop(deps.Logger).Named("upgrade"),
		metrics:        deps.Metrics,
		initialBackoff: deps.InitialBackoff,
		now:            time.Now,
	}
}

func (s *UpgradeService) UpgradePosition(ctx context.Context, userID, targetPositionID, depositAmount int64) (*models.UpgradeResult, error) {
	user, target, err := s.preflight(ctx, userID, targetPositionID, depositAmount)
	if err != nil {
		s.metrics.Distribution(distributionUpgrade, "rejected")
		return nil, err
	}

	retry := models.CommissionRetry{
		ReferenceID:   "UPGRADE-COMMISSION-" + uuid.NewString(),
		UserID:        userID,
		PositionID:    target.ID,
		DepositAmount: depositAmount,
		NextAttemptAt: s.now().Add(s.initialBackoff).UTC(),
	}

	result, err := s.applyUpgrade(ctx, user, target, retry)
	if err != nil {
		s.metrics.Distribution(distributionUpgrade, outcomeOf(err))
		return nil, err
	}
	result.CommissionRef = retry.ReferenceID

	status, credits, err := s.DistributeUpgradeCommission(ctx, retry)
	if err != nil {
		status = s.deferCommission(ctx, retry, domain.NewPartialDistributionError(retry.ReferenceID, err))
		credits = []models.CommissionCredit{}
	}
	result.CommissionStatus = status
	result.Commissions = credits
	s.metrics.Distribution(distributionUpgrade, string(status))

	publish(ctx, s.events, s.logger, newEvent(models.EventPositionUpgraded, userID, retry.ReferenceID, map[string]any{
		"positionId":       target.ID,
		"position":         target.Name,
		"depositAmount":    depositAmount,
		"commissionStatus": status,
	}, s.now()))
	return result, nil
}

// preflight validates the request without writing anything.
func (s *UpgradeService) preflight(ctx context.Context, userID, targetPositionID, depositAmount int64) (*models.User, *models.Position, error) {
	if depositAmount < 0 {
		return nil, nil, domain.NewValidationError("depositAmount must not be negative")
	}

	target, err := s.positions.Get(ctx, targetPositionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewInvalidUpgradeError(fmt.Sprintf("position %d does not exist", targetPositionID))
	}
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.rates.RateFor(models.EventPositionUpgrade, target.Name); err != nil {
		return nil, nil, err
	}

	user, err := loadUser(ctx, s.db, userID, false)
	if err != nil {
		return nil, nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, nil, domain.NewInvalidUpgradeError("account is not active")
	}
	if err := s.checkDirection(ctx, user, target); err != nil {
		return nil, nil, err
	}
	if depositAmount < target.DepositRequirement {
		return nil, nil, domain.NewInvalidUpgradeError(fmt.Sprintf("%s requires a deposit of %d", target.Name, target.DepositRequirement))
	}
	return user, target, nil
}

func (s *UpgradeService) checkDirection(ctx context.Context, user *models.User, target *models.Position) error {
	var current *models.Position
	if user.CurrentPositionID != nil {
		p, err := positionForPayout(ctx, s.positions, *user.CurrentPositionID)
		if err != nil {
			return err
		}
		current = p
	}
	if !models.CanUpgrade(current, target, user.IsIntern) {
		return domain.NewInvalidUpgradeError(fmt.Sprintf("cannot move to %s from the current position", target.Name))
	}
	return nil
}

// applyUpgrade debits the wallet, switches the position and records the pending payout in
// one transaction.
func (s *UpgradeService) applyUpgrade(ctx context.Context, user *models.User, target *models.Position, payout models.CommissionRetry) (*models.UpgradeResult, error) {
	depositAmount := payout.DepositAmount
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := loadUser(ctx, tx, user.ID, true)
	if err != nil {
		return nil, err
	}
	if !sameID(locked.CurrentPositionID, user.CurrentPositionID) {
		return nil, domain.NewConflictError("position changed during the upgrade")
	}

	wallet := locked.WalletBalance
	var debit *models.BatchResult
	if depositAmount > 0 {
		debit, err = s.ledger.ApplyBatchTx(ctx, tx, models.Batch{
			ReferenceID: "UPGRADE-" + uuid.NewString(),
			Entries: []models.Entry{{
				UserID:      user.ID,
				Amount:      -depositAmount,
				Type:        models.TxDebit,
				Description: fmt.Sprintf("Upgrade to %s", target.Name),
			}},
		})
		if err != nil {
			return nil, err
		}
		wallet = debit.Balances[user.ID].Wallet
	}

	startedAt := s.now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET current_position_id = $1, position_start_date = $2, is_intern = FALSE, updated_at = $2
		WHERE id = $3`,
		target.ID, startedAt, user.ID)
	if err != nil {
		return nil, fmt.Errorf("switch position of user %d: %w", user.ID, err)
	}
	if err := insertPendingPayout(ctx, tx, payout, startedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upgrade: %w", err)
	}
	if debit != nil {
		s.ledger.Committed(debit)
	}

	s.logger.Info("position upgraded",
		zap.Int64("user_id", user.ID),
		zap.String("position", target.Name),
		zap.Int64("deposit", depositAmount),
	)
	return &models.UpgradeResult{
		PreviousPositionID: locked.CurrentPositionID,
		Position:           target,
		DepositAmount:      depositAmount,
		WalletBalance:      wallet,
		PositionStartDate:  startedAt,
	}, nil
}

// DistributeUpgradeCommission pays the referral rewards for an upgrade that has committed.
// The claim row and the rewards share one transaction, so a tier is paid at most once.
func (s *UpgradeService) DistributeUpgradeCommission(ctx context.Context, retry models.CommissionRetry) (models.CommissionStatus, []models.CommissionCredit, error) {
	position, err := positionForPayout(ctx, s.positions, retry.PositionID)
	if err != nil {
		return "", nil, err
	}
	rate, err := s.rates.RateFor(models.EventPositionUpgrade, position.Name)
	if err != nil {
		return "", nil, err
	}
	ancestors, err := s.hierarchy.ResolveAncestors(ctx, retry.UserID)
	if err != nil {
		return "", nil, err
	}

	credits := commissionCredits(models.EventPositionUpgrade, rate, ancestors, retry.DepositAmount)
	if len(credits) == 0 {
		if err := settlePayout(ctx, s.db, retry.ReferenceID, models.CommissionNoAncestors, s.now().UTC()); err != nil {
			return "", nil, err
		}
		return models.CommissionNoAncestors, []models.CommissionCredit{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	claim, err := tx.ExecContext(ctx, `
		INSERT INTO upgrade_commission_claims (user_id, position_id, reference_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		retry.UserID, retry.PositionID, retry.ReferenceID, s.now().UTC())
	if err != nil {
		return "", nil, fmt.Errorf("claim upgrade commission: %w", err)
	}
	claimed, err := claim.RowsAffected()
	if err != nil {
		return "", nil, err
	}
	if claimed == 0 {
		s.logger.Info("upgrade commission already paid",
			zap.Int64("user_id", retry.UserID),
			zap.Int64("position_id", retry.PositionID),
		)
		if err := settlePayout(ctx, tx, retry.ReferenceID, models.CommissionAlreadyClaimed, s.now().UTC()); err != nil {
			return "", nil, err
		}
		if err := tx.Commit(); err != nil {
			return "", nil, fmt.Errorf("commit upgrade commission: %w", err)
		}
		return models.CommissionAlreadyClaimed, []models.CommissionCredit{}, nil
	}

	result, err := s.ledger.ApplyBatchTx(ctx, tx, models.Batch{
		ReferenceID: retry.ReferenceID,
		Entries:     commissionEntries(credits, retry.UserID),
	})
	if err != nil {
		return "", nil, err
	}
	if err := settlePayout(ctx, tx, retry.ReferenceID, models.CommissionPaid, s.now().UTC()); err != nil {
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("commit upgrade commission: %w", err)
	}
	s.ledger.Committed(result)
	return models.CommissionPaid, credits, nil
}

// deferCommission leaves a failed payout to the repair job. The PENDING row written with the
// upgrade is what the repair job scans; the queue entry only makes it run sooner.
func (s *UpgradeService) deferCommission(ctx context.Context, retry models.CommissionRetry, cause error) models.CommissionStatus {
	retry.Attempt = 1
	retry.LastError = cause.Error()

	fields := []zap.Field{
		zap.Int64("user_id", retry.UserID),
		zap.String("reference_id", retry.ReferenceID),
		zap.Error(cause),
	}
	if err := recordPayoutAttempt(ctx, s.db, retry, s.now().UTC()); err != nil {
		s.logger.Warn("could not record failed payout attempt", append(fields, zap.NamedError("record_error", err))...)
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, retry); err != nil {
			s.logger.Warn("could not queue payout wake-up", append(fields, zap.NamedError("queue_error", err))...)
		}
	}
	s.logger.Warn("upgrade commission left for repair", fields...)
	return models.CommissionQueued
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
