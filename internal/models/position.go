package models

import "time"

// Position is a tier from the admin-managed catalog.
type Position struct {
	ID                 int64  `json:"id" db:"id"`
	Name               string `json:"name" db:"name"`
	Level              int    `json:"level" db:"level"`
	DepositRequirement int64  `json:"depositRequirement" db:"deposit_requirement"`
	TasksPerDay        int    `json:"tasksPerDay" db:"tasks_per_day"`
	UnitPrice          int64  `json:"unitPrice" db:"unit_price"`
	ValidityDays       int    `json:"validityDays" db:"validity_days"`
	IsIntern           bool   `json:"isIntern" db:"is_intern"`
}

// ExpiresAt returns when a position started at start stops earning, or nil when it never expires.
func (p *Position) ExpiresAt(start time.Time) *time.Time {
	if p.ValidityDays <= 0 {
		return nil
	}
	t := start.AddDate(0, 0, p.ValidityDays)
	return &t
}

// CanUpgrade reports whether a user holding current (nil for none) may move to target.
// Upgrades only go up in level, except that an intern may move to any paid level.
func CanUpgrade(current, target *Position, isIntern bool) bool {
	if target == nil || target.IsIntern {
		return false
	}
	if current == nil || isIntern || current.IsIntern {
		return true
	}
	return target.Level > current.Level
}

// PositionStatus is the read model behind GET position-status.
type PositionStatus struct {
	Position            *Position  `json:"position"`
	IsIntern            bool       `json:"isIntern"`
	PositionStartDate   *time.Time `json:"positionStartDate,omitempty"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
	TasksCompletedToday int        `json:"tasksCompletedToday"`
	TasksRemaining      int        `json:"tasksRemaining"`
	CanComplete         bool       `json:"canComplete"`
	Reason              string     `json:"reason,omitempty"`
	NextResetAt         time.Time  `json:"nextResetAt"`
}
