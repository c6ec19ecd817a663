package models

import "time"

type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusBanned UserStatus = "BANNED"
)

// User is the ledger's view of an account. Balances are only written by LedgerService.
type User struct {
	ID                int64      `json:"id" db:"id"`
	ReferrerID        *int64     `json:"referrerId,omitempty" db:"referrer_id"`
	CurrentPositionID *int64     `json:"currentPositionId,omitempty" db:"current_position_id"`
	PositionStartDate *time.Time `json:"positionStartDate,omitempty" db:"position_start_date"`
	IsIntern          bool       `json:"isIntern" db:"is_intern"`
	Status            UserStatus `json:"status" db:"status"`
	WalletBalance     int64      `json:"walletBalance" db:"wallet_balance"`         // topup funds only
	CommissionBalance int64      `json:"commissionBalance" db:"commission_balance"` // earned income
	TotalEarnings     int64      `json:"totalEarnings" db:"total_earnings"`
	FundPassword      *string    `json:"-" db:"fund_password"`
	Version           int        `json:"-" db:"version"`
}

func (u *User) Balances() Balances {
	return Balances{
		Wallet:        u.WalletBalance,
		Commission:    u.CommissionBalance,
		TotalEarnings: u.TotalEarnings,
	}
}

// Balances is a snapshot of the three per-user balance fields.
type Balances struct {
	Wallet        int64 `json:"walletBalance"`
	Commission    int64 `json:"commissionBalance"`
	TotalEarnings int64 `json:"totalEarnings"`
}

// Get returns the balance held in account.
func (b Balances) Get(account Account) int64 {
	if account == AccountWallet {
		return b.Wallet
	}
	return b.Commission
}

func (b *Balances) set(account Account, value int64) {
	if account == AccountWallet {
		b.Wallet = value
		return
	}
	b.Commission = value
}

// LedgerAccount is a user row locked for the duration of a ledger batch.
type LedgerAccount struct {
	UserID   int64
	Balances Balances
	Version  int
}

// Apply moves the account by amount for txType and returns the new balance of the
// targeted account. The caller checks for negative results.
func (a *LedgerAccount) Apply(txType TransactionType, amount int64) int64 {
	account := txType.Account()
	after := a.Balances.Get(account) + amount
	a.Balances.set(account, after)
	if txType.CountsAsEarnings() {
		a.Balances.TotalEarnings += amount
	}
	return after
}
