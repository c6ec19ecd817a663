package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskearn/ledger/internal/models"
)

// An upgrade's commission payout is recorded in upgrade_commission_payouts inside the
// upgrade's own transaction and stays PENDING until an attempt settles it. The repair job
// scans PENDING rows; the redis retry queue only wakes it early.

func insertPendingPayout(ctx context.Context, q queryer, retry models.CommissionRetry, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO upgrade_commission_payouts (reference_id, user_id, position_id, deposit_amount, status, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		retry.ReferenceID, retry.UserID, retry.PositionID, retry.DepositAmount,
		string(models.CommissionPending), retry.NextAttemptAt, now)
	if err != nil {
		return fmt.Errorf("record pending payout %s: %w", retry.ReferenceID, err)
	}
	return nil
}

// settlePayout closes a PENDING row. A row that is already settled keeps its first outcome.
func settlePayout(ctx context.Context, q queryer, referenceID string, status models.CommissionStatus, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE upgrade_commission_payouts
		SET status = $1, updated_at = $2
		WHERE reference_id = $3 AND status = $4`,
		string(status), now, referenceID, string(models.CommissionPending))
	if err != nil {
		return fmt.Errorf("settle payout %s: %w", referenceID, err)
	}
	return nil
}

func recordPayoutAttempt(ctx context.Context, q queryer, retry models.CommissionRetry, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE upgrade_commission_payouts
		SET attempts = $1, last_error = $2, next_attempt_at = $3, updated_at = $4
		WHERE reference_id = $5 AND status = $6`,
		retry.Attempt, retry.LastError, retry.NextAttemptAt, now, retry.ReferenceID, string(models.CommissionPending))
	if err != nil {
		return fmt.Errorf("record payout attempt %s: %w", retry.ReferenceID, err)
	}
	return nil
}

func giveUpPayout(ctx context.Context, q queryer, retry models.CommissionRetry, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE upgrade_commission_payouts
		SET status = $1, attempts = $2, last_error = $3, updated_at = $4
		WHERE reference_id = $5 AND status = $6`,
		string(models.CommissionFailed), retry.Attempt, retry.LastError, now, retry.ReferenceID, string(models.CommissionPending))
	if err != nil {
		return fmt.Errorf("fail payout %s: %w", retry.ReferenceID, err)
	}
	return nil
}

// duePayouts lists PENDING payouts whose next attempt is due, oldest first.
func duePayouts(ctx context.Context, q queryer, now time.Time, limit int) ([]models.CommissionRetry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT reference_id, user_id, position_id, deposit_amount, attempts, last_error, next_attempt_at
		FROM upgrade_commission_payouts
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at
		LIMIT $3`,
		string(models.CommissionPending), now, limit)
	if err != nil {
		return nil, fmt.Errorf("find pending payouts: %w", err)
	}
	defer rows.Close()

	var due []models.CommissionRetry
	for rows.Next() {
		var r models.CommissionRetry
		if err := rows.Scan(&r.ReferenceID, &r.UserID, &r.PositionID, &r.DepositAmount, &r.Attempt, &r.LastError, &r.NextAttemptAt); err != nil {
			return nil, err
		}
		due = append(due, r)
	}
	return due, rows.Err()
}
