package models

import "time"

// UserVideoTask records that a user completed a video. (user_id, video_id) is unique forever.
type UserVideoTask struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"userId" db:"user_id"`
	VideoID        int64     `json:"videoId" db:"video_id"`
	PositionID     int64     `json:"positionId" db:"position_id"`
	Reward         int64     `json:"reward" db:"reward"`
	WatchedSeconds int       `json:"watchedSeconds" db:"watched_seconds"`
	WatchedAt      time.Time `json:"watchedAt" db:"watched_at"`
}

// WatchEvidence is what the client reports about a finished video.
type WatchEvidence struct {
	WatchedSeconds       int `json:"watchedSeconds"`
	VideoDurationSeconds int `json:"videoDurationSeconds"`
}

// GateStatus is the read-only answer of the daily task gate.
type GateStatus struct {
	CanComplete         bool      `json:"canComplete"`
	TasksCompletedToday int       `json:"tasksCompletedToday"`
	TasksRemaining      int       `json:"tasksRemaining"`
	Reason              string    `json:"reason,omitempty"`
	NextResetAt         time.Time `json:"nextResetAt"`
}

// DistributionResult describes a paid task.
type DistributionResult struct {
	TaskID      int64              `json:"taskId"`
	VideoID     int64              `json:"videoId"`
	ReferenceID string             `json:"referenceId"`
	Reward      int64              `json:"reward"`
	Commissions []CommissionCredit `json:"commissions"`
	Balances    Balances           `json:"balances"`
}

// TotalDistributed is the owner's reward plus every ancestor credit.
func (r *DistributionResult) TotalDistributed() int64 {
	total := r.Reward
	for _, c := range r.Commissions {
		total += c.Amount
	}
	return total
}
