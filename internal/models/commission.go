package models

import (
	"github.com/shopspring/decimal"
)

// CommissionEvent is the trigger family a rate applies to.
type CommissionEvent string

const (
	EventTaskIncome      CommissionEvent = "TASK_INCOME"
	EventPositionUpgrade CommissionEvent = "POSITION_UPGRADE"
)

// Task income pays ancestors as management bonuses; upgrades pay them as referral rewards.
var commissionTypes = map[CommissionEvent]map[HierarchyLevel]TransactionType{
	EventTaskIncome: {
		LevelA: TxManagementBonusA,
		LevelB: TxManagementBonusB,
		LevelC: TxManagementBonusC,
	},
	EventPositionUpgrade: {
		LevelA: TxReferralRewardA,
		LevelB: TxReferralRewardB,
		LevelC: TxReferralRewardC,
	},
}

// CommissionType returns the ledger type credited to an ancestor at level for event.
func (e CommissionEvent) CommissionType(level HierarchyLevel) TransactionType {
	return commissionTypes[e][level]
}

type RateMode string

const (
	RateModePercent RateMode = "PERCENT"
	RateModeFixed   RateMode = "FIXED"
)

var hundred = decimal.NewFromInt(100)

// Rate is one row of the commission table. In PERCENT mode A/B/C are percentages of the
// base amount; in FIXED mode they are whole PKR amounts.
type Rate struct {
	Mode RateMode
	A    decimal.Decimal
	B    decimal.Decimal
	C    decimal.Decimal
}

func (r Rate) valueFor(level HierarchyLevel) decimal.Decimal {
	switch level {
	case LevelA:
		return r.A
	case LevelB:
		return r.B
	case LevelC:
		return r.C
	}
	return decimal.Zero
}

// AmountFor computes the commission for one level. Each level is rounded on its own,
// half away from zero.
func (r Rate) AmountFor(level HierarchyLevel, base int64) int64 {
	v := r.valueFor(level)
	if r.Mode == RateModeFixed {
		return v.Round(0).IntPart()
	}
	return decimal.NewFromInt(base).Mul(v).Div(hundred).Round(0).IntPart()
}

// CommissionCredit is one ancestor payout inside a distribution.
type CommissionCredit struct {
	Level  HierarchyLevel  `json:"level"`
	UserID int64           `json:"userId"`
	Amount int64           `json:"amount"`
	Type   TransactionType `json:"type"`
}
