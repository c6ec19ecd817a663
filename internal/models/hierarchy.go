package models

import "time"

// HierarchyLevel tags an ancestor by its distance from the user.
type HierarchyLevel string

const (
	LevelA HierarchyLevel = "A_LEVEL" // direct referrer
	LevelB HierarchyLevel = "B_LEVEL" // referrer's referrer
	LevelC HierarchyLevel = "C_LEVEL" // third hop
)

// HierarchyLevels is the walk order.
var HierarchyLevels = []HierarchyLevel{LevelA, LevelB, LevelC}

// ReferralEdge is a stored hierarchy snapshot row.
type ReferralEdge struct {
	UserID     int64          `json:"userId" db:"user_id"`
	ReferrerID int64          `json:"referrerId" db:"referrer_id"`
	Level      HierarchyLevel `json:"level" db:"level"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}

// Ancestors holds up to three resolved ancestors. A nil level is absent.
type Ancestors struct {
	A *int64 `json:"aLevel,omitempty"`
	B *int64 `json:"bLevel,omitempty"`
	C *int64 `json:"cLevel,omitempty"`
}

func (a Ancestors) Get(level HierarchyLevel) *int64 {
	switch level {
	case LevelA:
		return a.A
	case LevelB:
		return a.B
	case LevelC:
		return a.C
	}
	return nil
}

func (a *Ancestors) Set(level HierarchyLevel, userID int64) {
	id := userID
	switch level {
	case LevelA:
		a.A = &id
	case LevelB:
		a.B = &id
	case LevelC:
		a.C = &id
	}
}

// Count returns how many consecutive levels are present, starting at A.
func (a Ancestors) Count() int {
	n := 0
	for _, level := range HierarchyLevels {
		if a.Get(level) == nil {
			break
		}
		n++
	}
	return n
}
