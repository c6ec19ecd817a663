package services

import (
	"context"
	"database/sql"

	"github.com/taskearn/ledger/internal/models"
)

// Ledger applies balance batches. ApplyBatchTx joins a caller-owned transaction; the
// caller reports the result through Committed once its transaction commits.
type Ledger interface {
	ApplyBatch(ctx context.Context, batch models.Batch) (*models.BatchResult, error)
	ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch models.Batch) (*models.BatchResult, error)
	Committed(result *models.BatchResult)
}

type AncestorResolver interface {
	ResolveAncestors(ctx context.Context, userID int64) (models.Ancestors, error)
}

type RateTable interface {
	RateFor(event models.CommissionEvent, positionName string) (models.Rate, error)
}

type PositionLookup interface {
	Get(ctx context.Context, positionID int64) (*models.Position, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.DomainEvent) error
}

// RetryQueue carries wake-ups for upgrade payouts that failed after the upgrade committed.
// The payout itself lives in upgrade_commission_payouts.
type RetryQueue interface {
	Enqueue(ctx context.Context, retry models.CommissionRetry) error
	Dequeue(ctx context.Context) (*models.CommissionRetry, error)
	Len(ctx context.Context) (int64, error)
	DeadLetter(ctx context.Context, retry models.CommissionRetry) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
