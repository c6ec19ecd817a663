package models

import "time"

type CommissionStatus string

const (
	CommissionPending        CommissionStatus = "PENDING"
	CommissionPaid           CommissionStatus = "PAID"
	CommissionNoAncestors    CommissionStatus = "NO_ANCESTORS"
	CommissionAlreadyClaimed CommissionStatus = "ALREADY_CLAIMED"
	CommissionQueued         CommissionStatus = "QUEUED"
	CommissionFailed         CommissionStatus = "FAILED" // out of attempts; needs an operator
)

// UpgradeResult is returned once the paid upgrade has committed.
type UpgradeResult struct {
	PreviousPositionID *int64             `json:"previousPositionId,omitempty"`
	Position           *Position          `json:"position"`
	DepositAmount      int64              `json:"depositAmount"`
	WalletBalance      int64              `json:"walletBalance"`
	PositionStartDate  time.Time          `json:"positionStartDate"`
	CommissionRef      string             `json:"commissionReferenceId"`
	CommissionStatus   CommissionStatus   `json:"commissionStatus"`
	Commissions        []CommissionCredit `json:"commissions"`
}

// CommissionRetry is one upgrade_commission_payouts row. ReferenceID is fixed when the
// upgrade commits so replays stay idempotent.
type CommissionRetry struct {
	ReferenceID   string    `json:"referenceId"`
	UserID        int64     `json:"userId"`
	PositionID    int64     `json:"positionId"`
	DepositAmount int64     `json:"depositAmount"`
	Attempt       int       `json:"attempt"`
	NextAttemptAt time.Time `json:"nextAttemptAt"`
	LastError     string    `json:"lastError,omitempty"`
}
