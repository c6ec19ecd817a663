package domain

import (
	"errors"
	"fmt"
)

// DomainError carries a stable code the API layer maps to a status.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Error codes
const (
	ErrCodeConfiguration        = "CONFIGURATION_ERROR"
	ErrCodeAlreadyCompleted     = "ALREADY_COMPLETED"
	ErrCodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	ErrCodeQuotaExceeded        = "QUOTA_EXCEEDED"
	ErrCodePartialDistribution  = "PARTIAL_DISTRIBUTION"
	ErrCodeInsufficientPosition = "INSUFFICIENT_POSITION"
	ErrCodeInvalidUpgrade       = "INVALID_UPGRADE"
	ErrCodeWithdrawalNotAllowed = "WITHDRAWAL_NOT_ALLOWED"
	ErrCodeBatchAlreadyApplied  = "BATCH_ALREADY_APPLIED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
)

// Sentinels for errors.Is checks.
var (
	ErrConfiguration        = &DomainError{Code: ErrCodeConfiguration}
	ErrAlreadyCompleted     = &DomainError{Code: ErrCodeAlreadyCompleted}
	ErrInsufficientFunds    = &DomainError{Code: ErrCodeInsufficientFunds}
	ErrQuotaExceeded        = &DomainError{Code: ErrCodeQuotaExceeded}
	ErrPartialDistribution  = &DomainError{Code: ErrCodePartialDistribution}
	ErrInsufficientPosition = &DomainError{Code: ErrCodeInsufficientPosition}
	ErrInvalidUpgrade       = &DomainError{Code: ErrCodeInvalidUpgrade}
	ErrWithdrawalNotAllowed = &DomainError{Code: ErrCodeWithdrawalNotAllowed}
	ErrBatchAlreadyApplied  = &DomainError{Code: ErrCodeBatchAlreadyApplied}
	ErrNotFound             = &DomainError{Code: ErrCodeNotFound}
	ErrValidation           = &DomainError{Code: ErrCodeValidation}
	ErrConflict             = &DomainError{Code: ErrCodeConflict}
	ErrUnauthorized         = &DomainError{Code: ErrCodeUnauthorized}
)

// NewConfigurationError reports missing rate or position data. Distributions abort on it
// before any ledger write.
func NewConfigurationError(msg string) error {
	return &DomainError{Code: ErrCodeConfiguration, Message: msg}
}

// NewAlreadyCompletedError is returned when a (user, video) task already exists.
func NewAlreadyCompletedError(userID, videoID int64) error {
	return &DomainError{
		Code:    ErrCodeAlreadyCompleted,
		Message: fmt.Sprintf("video %d already completed by user %d", videoID, userID),
	}
}

// NewInsufficientFundsError is returned when a debit would take an account below zero.
func NewInsufficientFundsError(userID int64, account string, balance, requested int64) error {
	return &DomainError{
		Code:    ErrCodeInsufficientFunds,
		Message: fmt.Sprintf("user %d %s balance %d is below requested %d", userID, account, balance, requested),
	}
}

// NewQuotaExceededError is returned by the daily task gate.
func NewQuotaExceededError(tasksPerDay int) error {
	return &DomainError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("daily task quota of %d reached", tasksPerDay),
	}
}

// NewPartialDistributionError marks a commission batch that failed after its trigger committed.
func NewPartialDistributionError(referenceID string, err error) error {
	return &DomainError{
		Code:    ErrCodePartialDistribution,
		Message: fmt.Sprintf("distribution %s pending repair", referenceID),
		Err:     err,
	}
}

// NewInsufficientPositionError is returned when the user's position cannot earn.
func NewInsufficientPositionError(msg string) error {
	return &DomainError{Code: ErrCodeInsufficientPosition, Message: msg}
}

// NewInvalidUpgradeError is returned when an upgrade request breaks a precondition.
func NewInvalidUpgradeError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidUpgrade, Message: msg}
}

// NewWithdrawalNotAllowedError is returned when the account may not withdraw.
func NewWithdrawalNotAllowedError(msg string) error {
	return &DomainError{Code: ErrCodeWithdrawalNotAllowed, Message: msg}
}

// NewBatchAlreadyAppliedError is returned when a ledger batch reference id was already written.
func NewBatchAlreadyAppliedError(referenceID string) error {
	return &DomainError{
		Code:    ErrCodeBatchAlreadyApplied,
		Message: fmt.Sprintf("batch %s already applied", referenceID),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{Code: ErrCodeValidation, Message: msg}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{Code: ErrCodeConflict, Message: msg}
}

// NewUnauthorizedError is returned for bad credentials or a revoked session.
func NewUnauthorizedError(msg string) error {
	return &DomainError{Code: ErrCodeUnauthorized, Message: msg}
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// MessageOf returns the caller-facing reason for err.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
