package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/metrics"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

const distributionTaskIncome = "task_income"

// TaskIncomeService pays a completed video to its owner and the owner's three ancestors.
// The task row commits first and gates the payout; the payout is one ledger batch keyed by
// the task id, so a failed payout can be replayed without paying twice.
type TaskIncomeService struct {
	db            *sql.DB
	ledger        Ledger
	hierarchy     AncestorResolver
	rates         RateTable
	positions     PositionLookup
	gate          *TaskGate
	events        EventPublisher
	logger        *zap.Logger
	metrics       *metrics.Metrics
	minWatchRatio float64
	now           func() time.Time
}

type TaskIncomeDeps struct {
	DB            *sql.DB
	Ledger        Ledger
	Hierarchy     AncestorResolver
	Rates         RateTable
	Positions     PositionLookup
	Gate          *TaskGate
	Events        EventPublisher
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	MinWatchRatio float64
}

func NewTaskIncomeService(deps TaskIncomeDeps) *TaskIncomeService {
	return &TaskIncomeService{
		db:            deps.DB,
		ledger:        deps.Ledger,
		hierarchy:     deps.Hierarchy,
		rates:         deps.Rates,
		positions:     deps.Positions,
		gate:          deps.Gate,
		events:        deps.Events,
		logger:        logging.OrNop(deps.Logger).Named("task_income"),
		metrics:       deps.Metrics,
		minWatchRatio: deps.MinWatchRatio,
		now:           time.Now,
	}
}

// DistributeTaskIncome records the task and pays it. Preflight failures, a repeated video
// and an exhausted quota write nothing. A payout failure after the task row committed
// returns a PartialDistribution error and is left for the repair job.
func (s *TaskIncomeService) DistributeTaskIncome(ctx context.Context, userID, videoID int64, evidence models.WatchEvidence) (*models.DistributionResult, error) {
	if err := s.checkEvidence(videoID, evidence); err != nil {
		s.metrics.Distribution(distributionTaskIncome, "rejected")
		return nil, err
	}

	user, position, rate, err := s.preflight(ctx, userID)
	if err != nil {
		s.metrics.Distribution(distributionTaskIncome, "rejected")
		return nil, err
	}

	task, err := s.recordTask(ctx, user, position, videoID, evidence)
	if err != nil {
		s.metrics.Distribution(distributionTaskIncome, outcomeOf(err))
		return nil, err
	}

	result, err := s.pay(ctx, task, rate)
	if err != nil {
		s.metrics.Distribution(distributionTaskIncome, "partial")
		s.logger.Error("task income payout failed, pending repair",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
		return nil, domain.NewPartialDistributionError(models.TaskReferenceID(task.ID), err)
	}

	s.metrics.Distribution(distributionTaskIncome, "paid")
	publish(ctx, s.events, s.logger, newEvent(models.EventTaskCompleted, userID, result.ReferenceID, map[string]any{
		"taskId":           task.ID,
		"videoId":          videoID,
		"reward":           result.Reward,
		"totalDistributed": result.TotalDistributed(),
	}, s.now()))
	return result, nil
}

// ReplayTask pays a recorded task whose payout never committed. It returns
// ErrBatchAlreadyApplied when the payout exists.
func (s *TaskIncomeService) ReplayTask(ctx context.Context, task models.UserVideoTask) (*models.DistributionResult, error) {
	position, err := positionForPayout(ctx, s.positions, task.PositionID)
	if err != nil {
		return nil, err
	}
	rate, err := s.rates.RateFor(models.EventTaskIncome, position.Name)
	if err != nil {
		return nil, err
	}
	return s.pay(ctx, &task, rate)
}

func (s *TaskIncomeService) checkEvidence(videoID int64, evidence models.WatchEvidence) error {
	if videoID <= 0 {
		return domain.NewValidationError("videoId is required")
	}
	if evidence.VideoDurationSeconds <= 0 {
		return domain.NewValidationError("videoDurationSeconds is required")
	}
	required := int(math.Ceil(float64(evidence.VideoDurationSeconds) * s.minWatchRatio))
	if evidence.WatchedSeconds < required {
		return domain.NewValidationError(fmt.Sprintf("watched %ds of %ds, at least %ds required",
			evidence.WatchedSeconds, evidence.VideoDurationSeconds, required))
	}
	return nil
}

// preflight resolves everything the payout needs before anything is written.
func (s *TaskIncomeService) preflight(ctx context.Context, userID int64) (*models.User, *models.Position, models.Rate, error) {
	user, err := loadUser(ctx, s.db, userID, false)
	if err != nil {
		return nil, nil, models.Rate{}, err
	}
	if user.Status != models.UserStatusActive {
		return nil, nil, models.Rate{}, domain.NewInsufficientPositionError("account is not active")
	}
	if user.CurrentPositionID == nil {
		return nil, nil, models.Rate{}, domain.NewInsufficientPositionError(ReasonNoPosition)
	}

	position, err := positionForPayout(ctx, s.positions, *user.CurrentPositionID)
	if err != nil {
		return nil, nil, models.Rate{}, err
	}
	if err := checkEarning(position, user, s.now()); err != nil {
		return nil, nil, models.Rate{}, err
	}

	rate, err := s.rates.RateFor(models.EventTaskIncome, position.Name)
	if err != nil {
		return nil, nil, models.Rate{}, err
	}
	return user, position, rate, nil
}

// recordTask inserts the task row under the user lock. The lock serializes concurrent
// completions by one user so the quota count cannot be raced.
func (s *TaskIncomeService) recordTask(ctx context.Context, user *models.User, position *models.Position, videoID int64, evidence models.WatchEvidence) (*models.UserVideoTask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := loadUser(ctx, tx, user.ID, true)
	if err != nil {
		return nil, err
	}
	if locked.CurrentPositionID == nil || *locked.CurrentPositionID != position.ID {
		return nil, domain.NewConflictError("position changed while completing the task")
	}

	var done bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_video_tasks WHERE user_id = $1 AND video_id = $2)`,
		user.ID, videoID).Scan(&done)
	if err != nil {
		return nil, fmt.Errorf("check task: %w", err)
	}
	if done {
		return nil, domain.NewAlreadyCompletedError(user.ID, videoID)
	}

	now := s.now()
	start, end := s.gate.DayWindow(now)
	count, err := countTasksInWindow(ctx, tx, user.ID, start, end)
	if err != nil {
		return nil, err
	}
	if count >= position.TasksPerDay {
		return nil, domain.NewQuotaExceededError(position.TasksPerDay)
	}

	task := &models.UserVideoTask{
		UserID:         user.ID,
		VideoID:        videoID,
		PositionID:     position.ID,
		Reward:         position.UnitPrice,
		WatchedSeconds: evidence.WatchedSeconds,
		WatchedAt:      now.UTC(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_video_tasks (user_id, video_id, position_id, reward, watched_seconds, watched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, video_id) DO NOTHING
		RETURNING id`,
		task.UserID, task.VideoID, task.PositionID, task.Reward, task.WatchedSeconds, task.WatchedAt).Scan(&task.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewAlreadyCompletedError(user.ID, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return task, nil
}

func (s *TaskIncomeService) pay(ctx context.Context, task *models.UserVideoTask, rate models.Rate) (*models.DistributionResult, error) {
	referenceID := models.TaskReferenceID(task.ID)

	ancestors, err := s.hierarchy.ResolveAncestors(ctx, task.UserID)
	if err != nil {
		return nil, err
	}
	credits := commissionCredits(models.EventTaskIncome, rate, ancestors, task.Reward)

	entries := []models.Entry{{
		UserID:      task.UserID,
		Amount:      task.Reward,
		Type:        models.TxTaskIncome,
		Description: fmt.Sprintf("Task income for video %d", task.VideoID),
	}}
	entries = append(entries, commissionEntries(credits, task.UserID)...)

	batch, err := s.ledger.ApplyBatch(ctx, models.Batch{ReferenceID: referenceID, Entries: entries})
	if err != nil {
		return nil, err
	}

	return &models.DistributionResult{
		TaskID:      task.ID,
		VideoID:     task.VideoID,
		ReferenceID: referenceID,
		Reward:      task.Reward,
		Commissions: credits,
		Balances:    batch.Balances[task.UserID],
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	}
	return "failed"
}
