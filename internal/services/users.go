package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

const selectUser = `
	SELECT id, referrer_id, current_position_id, position_start_date, is_intern, status,
	       wallet_balance, commission_balance, total_earnings, fund_password, version
	FROM users
	WHERE id = $1`

// loadUser reads a user row, locking it when forUpdate is set.
func loadUser(ctx context.Context, q queryer, userID int64, forUpdate bool) (*models.User, error) {
	query := selectUser
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		user       models.User
		referrerID sql.NullInt64
		positionID sql.NullInt64
		startDate  sql.NullTime
		fundPass   sql.NullString
	)
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &referrerID, &positionID, &startDate, &user.IsIntern, &user.Status,
		&user.WalletBalance, &user.CommissionBalance, &user.TotalEarnings, &fundPass, &user.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	if referrerID.Valid {
		user.ReferrerID = &referrerID.Int64
	}
	if positionID.Valid {
		user.CurrentPositionID = &positionID.Int64
	}
	if startDate.Valid {
		user.PositionStartDate = &startDate.Time
	}
	if fundPass.Valid {
		user.FundPassword = &fundPass.String
	}
	return &user, nil
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
