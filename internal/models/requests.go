package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// TopupRequest is a user deposit awaiting admin approval. Approval is the only way funds
// enter the wallet balance.
type TopupRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"userId" db:"user_id"`
	Amount      int64         `json:"amount" db:"amount"`
	Status      RequestStatus `json:"status" db:"status"`
	Reason      string        `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	ProcessedAt *time.Time    `json:"processedAt,omitempty" db:"processed_at"`
}

// WithdrawalRequest debits the commission balance when created.
type WithdrawalRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"userId" db:"user_id"`
	Amount      int64         `json:"amount" db:"amount"`
	Status      RequestStatus `json:"status" db:"status"`
	Reason      string        `json:"reason,omitempty" db:"reason"`
	ReferenceID string        `json:"referenceId" db:"reference_id"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	ProcessedAt *time.Time    `json:"processedAt,omitempty" db:"processed_at"`
}

// SecurityRefundRequest is tracked apart from every balance field.
type SecurityRefundRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"userId" db:"user_id"`
	Amount      int64         `json:"amount" db:"amount"`
	Status      RequestStatus `json:"status" db:"status"`
	Reason      string        `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	ProcessedAt *time.Time    `json:"processedAt,omitempty" db:"processed_at"`
}
