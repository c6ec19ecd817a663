package audit

import (
	"time"

	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

type AuditEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	ReferenceID string    `json:"reference_id"`
	UserID      int64     `json:"user_id,omitempty"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
}

// AuditLogger writes one structured line per balance-affecting event.
type AuditLogger struct {
	logger *zap.Logger
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger.Named("audit")}
}

func (a *AuditLogger) LogBatch(result *models.BatchResult) {
	for _, tx := range result.Transactions {
		a.log(AuditEvent{
			Timestamp:   tx.CreatedAt,
			EventType:   string(tx.Type),
			ReferenceID: result.ReferenceID,
			UserID:      tx.UserID,
			Amount:      tx.Amount,
			Status:      string(tx.Status),
			Details:     map[string]int64{"balance_after": tx.BalanceAfter},
		})
	}
}

func (a *AuditLogger) LogBatchFailure(referenceID string, err error) {
	a.log(AuditEvent{
		Timestamp:   time.Now(),
		EventType:   "BATCH",
		ReferenceID: referenceID,
		Status:      string(models.TxStatusFailed),
		Details:     map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) LogOperation(referenceID string, userID int64, operation, details string) {
	a.log(AuditEvent{
		Timestamp:   time.Now(),
		EventType:   operation,
		ReferenceID: referenceID,
		UserID:      userID,
		Status:      "SUCCESS",
		Details:     map[string]string{"details": details},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	a.logger.Info("AUDIT",
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("reference_id", event.ReferenceID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("amount", event.Amount),
		zap.String("status", event.Status),
		zap.Any("details", event.Details),
	)
}
