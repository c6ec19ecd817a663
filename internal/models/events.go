package models

import "time"

const (
	EventTaskCompleted       = "task.completed"
	EventPositionUpgraded    = "position.upgraded"
	EventWithdrawalRequested = "withdrawal.requested"
)

// DomainEvent is published after commit for subscribers such as notifications.
type DomainEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	UserID      int64          `json:"userId"`
	ReferenceID string         `json:"referenceId,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}
