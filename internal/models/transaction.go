package models

import (
	"fmt"
	"sort"
	"time"
)

// Account is one of the two balance fields a ledger entry can move.
type Account string

const (
	AccountWallet     Account = "WALLET"
	AccountCommission Account = "COMMISSION"
)

type TransactionType string

const (
	TxTaskIncome         TransactionType = "TASK_INCOME"
	TxReferralRewardA    TransactionType = "REFERRAL_REWARD_A"
	TxReferralRewardB    TransactionType = "REFERRAL_REWARD_B"
	TxReferralRewardC    TransactionType = "REFERRAL_REWARD_C"
	TxManagementBonusA   TransactionType = "MANAGEMENT_BONUS_A"
	TxManagementBonusB   TransactionType = "MANAGEMENT_BONUS_B"
	TxManagementBonusC   TransactionType = "MANAGEMENT_BONUS_C"
	TxTopup              TransactionType = "TOPUP"
	TxTopupBonus         TransactionType = "TOPUP_BONUS"
	TxDebit              TransactionType = "DEBIT"
	TxSpecialCommission  TransactionType = "SPECIAL_COMMISSION"
	TxWithdrawal         TransactionType = "WITHDRAWAL"
	TxWithdrawalReversal TransactionType = "WITHDRAWAL_REVERSAL"
)

type typeRule struct {
	account  Account
	debit    bool // amount must be negative
	earnings bool // also moves total_earnings
}

// Wallet is reachable from exactly two types: topup approval and position debits.
var typeRules = map[TransactionType]typeRule{
	TxTaskIncome:         {account: AccountCommission, earnings: true},
	TxReferralRewardA:    {account: AccountCommission, earnings: true},
	TxReferralRewardB:    {account: AccountCommission, earnings: true},
	TxReferralRewardC:    {account: AccountCommission, earnings: true},
	TxManagementBonusA:   {account: AccountCommission, earnings: true},
	TxManagementBonusB:   {account: AccountCommission, earnings: true},
	TxManagementBonusC:   {account: AccountCommission, earnings: true},
	TxTopupBonus:         {account: AccountCommission, earnings: true},
	TxSpecialCommission:  {account: AccountCommission, earnings: true},
	TxWithdrawal:         {account: AccountCommission, debit: true},
	TxWithdrawalReversal: {account: AccountCommission},
	TxTopup:              {account: AccountWallet},
	TxDebit:              {account: AccountWallet, debit: true},
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := typeRules[t]
	return ok
}

// Account returns the balance field t moves. Unknown types map to the commission account,
// and the ledger rejects them before this is consulted.
func (t TransactionType) Account() Account {
	if r, ok := typeRules[t]; ok {
		return r.account
	}
	return AccountCommission
}

// IsDebit reports whether entries of this type carry a negative amount.
func (t TransactionType) IsDebit() bool {
	return typeRules[t].debit
}

// CountsAsEarnings reports whether credits of this type also raise total earnings.
func (t TransactionType) CountsAsEarnings() bool {
	return typeRules[t].earnings
}

// TypesForAccount lists every transaction type that moves account.
func TypesForAccount(account Account) []TransactionType {
	var out []TransactionType
	for t, r := range typeRules {
		if r.account == account {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "PENDING"
	TxStatusCompleted TransactionStatus = "COMPLETED"
	TxStatusFailed    TransactionStatus = "FAILED"
)

// WalletTransaction is an immutable ledger row.
type WalletTransaction struct {
	ID           int64             `json:"id" db:"id"`
	UserID       int64             `json:"userId" db:"user_id"`
	Type         TransactionType   `json:"type" db:"type"`
	Amount       int64             `json:"amount" db:"amount"`              // signed, whole PKR
	BalanceAfter int64             `json:"balanceAfter" db:"balance_after"` // of Type.Account()
	Description  string            `json:"description" db:"description"`
	ReferenceID  string            `json:"referenceId" db:"reference_id"`
	Status       TransactionStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
}

// Entry is one balance movement inside a Batch. It names a type, never an account.
type Entry struct {
	UserID      int64
	Amount      int64
	Type        TransactionType
	Description string
}

// Batch is applied all-or-nothing; every row it writes shares ReferenceID.
type Batch struct {
	ReferenceID string
	Entries     []Entry
}

// UserIDs returns the distinct users touched by the batch in ascending order,
// which is also the lock order.
func (b Batch) UserIDs() []int64 {
	seen := make(map[int64]bool, len(b.Entries))
	ids := make([]int64, 0, len(b.Entries))
	for _, e := range b.Entries {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BatchResult is what a committed batch wrote.
type BatchResult struct {
	ReferenceID  string              `json:"referenceId"`
	Transactions []WalletTransaction `json:"transactions"`
	Balances     map[int64]Balances  `json:"balances"`
}

// Total sums every amount written by the batch.
func (r *BatchResult) Total() int64 {
	var total int64
	for _, t := range r.Transactions {
		total += t.Amount
	}
	return total
}

// TaskReferenceID is the deterministic reference for the payout of a task row, so a
// replay can find whether it was already paid.
func TaskReferenceID(taskID int64) string {
	return fmt.Sprintf("TASK-%d", taskID)
}

// AccountDrift is the result of replaying one account's transaction log. The earnings
// pair is only set for the commission account.
type AccountDrift struct {
	UserID           int64   `json:"userId"`
	Account          Account `json:"account"`
	StoredBalance    int64   `json:"storedBalance"`
	ReplayedBalance  int64   `json:"replayedBalance"`
	Rows             int     `json:"rows"`
	FirstBadRowID    *int64  `json:"firstBadRowId,omitempty"`
	StoredEarnings   *int64  `json:"storedEarnings,omitempty"`
	ReplayedEarnings *int64  `json:"replayedEarnings,omitempty"`
	Consistent       bool    `json:"consistent"`
}
