package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

const (
	ReasonNoPosition      = "no active position"
	ReasonPositionExpired = "position validity has ended"
	ReasonQuotaReached    = "daily task quota reached"
)

// TaskGate answers whether a user may log another task today. The day starts at local
// midnight in the configured zone. Its answer is advisory; the distributor re-checks
// under the user row lock.
type TaskGate struct {
	db        *sql.DB
	positions PositionLookup
	loc       *time.Location
	now       func() time.Time
}

func NewTaskGate(db *sql.DB, positions PositionLookup, loc *time.Location) *TaskGate {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskGate{db: db, positions: positions, loc: loc, now: time.Now}
}

// DayWindow returns [start, end) of the local calendar day containing now. The window runs
// midnight to midnight, so it is 23h or 25h long on a DST transition day and consecutive
// windows never overlap or leave a gap.
func (g *TaskGate) DayWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(g.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)
	return start, start.AddDate(0, 0, 1)
}

// NextReset is the next local midnight after now.
func (g *TaskGate) NextReset(now time.Time) time.Time {
	_, end := g.DayWindow(now)
	return end
}

func (g *TaskGate) CanComplete(ctx context.Context, userID int64) (*models.GateStatus, error) {
	user, err := loadUser(ctx, g.db, userID, false)
	if err != nil {
		return nil, err
	}
	_, status, err := g.evaluate(ctx, g.db, user)
	return status, err
}

// PositionStatus combines the user's position with today's gate answer.
func (g *TaskGate) PositionStatus(ctx context.Context, userID int64) (*models.PositionStatus, error) {
	user, err := loadUser(ctx, g.db, userID, false)
	if err != nil {
		return nil, err
	}
	position, gate, err := g.evaluate(ctx, g.db, user)
	if err != nil {
		return nil, err
	}

	status := &models.PositionStatus{
		Position:            position,
		IsIntern:            user.IsIntern,
		PositionStartDate:   user.PositionStartDate,
		TasksCompletedToday: gate.TasksCompletedToday,
		TasksRemaining:      gate.TasksRemaining,
		CanComplete:         gate.CanComplete,
		Reason:              gate.Reason,
		NextResetAt:         gate.NextResetAt,
	}
	if position != nil && user.PositionStartDate != nil {
		status.ExpiresAt = position.ExpiresAt(*user.PositionStartDate)
	}
	return status, nil
}

func (g *TaskGate) evaluate(ctx context.Context, q queryer, user *models.User) (*models.Position, *models.GateStatus, error) {
	now := g.now()
	status := &models.GateStatus{NextResetAt: g.NextReset(now)}

	if user.CurrentPositionID == nil {
		status.Reason = ReasonNoPosition
		return nil, status, nil
	}
	position, err := g.positions.Get(ctx, *user.CurrentPositionID)
	if err != nil {
		return nil, nil, err
	}
	if expired(position, user, now) {
		status.Reason = ReasonPositionExpired
		return position, status, nil
	}

	start, end := g.DayWindow(now)
	count, err := countTasksInWindow(ctx, q, user.ID, start, end)
	if err != nil {
		return nil, nil, err
	}
	status.TasksCompletedToday = count
	status.TasksRemaining = max(position.TasksPerDay-count, 0)
	status.CanComplete = status.TasksRemaining > 0
	if !status.CanComplete {
		status.Reason = ReasonQuotaReached
	}
	return position, status, nil
}

// checkEarning rejects users whose position cannot earn task income at now.
func checkEarning(position *models.Position, user *models.User, now time.Time) error {
	if position.TasksPerDay <= 0 || position.UnitPrice <= 0 {
		return domain.NewInsufficientPositionError(fmt.Sprintf("position %s does not earn task income", position.Name))
	}
	if expired(position, user, now) {
		return domain.NewInsufficientPositionError(ReasonPositionExpired)
	}
	return nil
}

func expired(position *models.Position, user *models.User, now time.Time) bool {
	if user.PositionStartDate == nil {
		return false
	}
	expiresAt := position.ExpiresAt(*user.PositionStartDate)
	return expiresAt != nil && !now.Before(*expiresAt)
}

func countTasksInWindow(ctx context.Context, q queryer, userID int64, start, end time.Time) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_video_tasks
		WHERE user_id = $1 AND watched_at >= $2 AND watched_at < $3`,
		userID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks of user %d: %w", userID, err)
	}
	return count, nil
}
