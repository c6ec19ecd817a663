package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskearn/ledger/internal/config"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/metrics"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

type taskReplayer interface {
	ReplayTask(ctx context.Context, task models.UserVideoTask) (*models.DistributionResult, error)
}

type commissionReplayer interface {
	DistributeUpgradeCommission(ctx context.Context, retry models.CommissionRetry) (models.CommissionStatus, []models.CommissionCredit, error)
}

// RepairService finishes distributions whose trigger committed but whose payout did not.
type RepairService struct {
	db       *sql.DB
	tasks    taskReplayer
	upgrades commissionReplayer
	queue    RetryQueue
	cron     *cron.Cron
	config   config.RepairConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRepairService(db *sql.DB, tasks taskReplayer, upgrades commissionReplayer, queue RetryQueue, cfg config.RepairConfig, logger *zap.Logger, m *metrics.Metrics) *RepairService {
	return &RepairService{
		db:       db,
		tasks:    tasks,
		upgrades: upgrades,
		queue:    queue,
		cron:     cron.New(),
		config:   cfg,
		logger:   logging.OrNop(logger).Named("repair"),
		metrics:  m,
		now:      time.Now,
	}
}

// Start schedules RunOnce on the configured cron spec.
func (s *RepairService) Start() error {
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule repair %q: %w", s.config.Schedule, err)
	}
	s.logger.Info("starting repair scheduler", zap.String("schedule", s.config.Schedule))
	s.cron.Start()
	return nil
}

// Stop waits for a running repair to finish.
func (s *RepairService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *RepairService) RunOnce(ctx context.Context) {
	if n, err := s.RepairTaskIncome(ctx); err != nil {
		s.logger.Error("task income repair failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("task income repaired", zap.Int("tasks", n))
	}

	if n, err := s.DrainUpgradeRetries(ctx); err != nil {
		s.logger.Error("upgrade commission wake-ups failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("upgrade commission wake-ups drained", zap.Int("batches", n))
	}

	if n, err := s.RepairUpgradeCommissions(ctx); err != nil {
		s.logger.Error("upgrade commission repair failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("upgrade commissions repaired", zap.Int("batches", n))
	}
}

// RepairTaskIncome replays tasks older than the grace period that have no payout row.
func (s *RepairService) RepairTaskIncome(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.GracePeriod).UTC()
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.video_id, t.position_id, t.reward, t.watched_seconds, t.watched_at
		FROM user_video_tasks t
		WHERE t.watched_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM wallet_transactions w WHERE w.reference_id = 'TASK-' || t.id
		  )
		ORDER BY t.id
		LIMIT $2`, cutoff, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find unpaid tasks: %w", err)
	}

	var pending []models.UserVideoTask
	for rows.Next() {
		var t models.UserVideoTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.VideoID, &t.PositionID, &t.Reward, &t.WatchedSeconds, &t.WatchedAt); err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	repaired := 0
	for _, task := range pending {
		_, err := s.tasks.ReplayTask(ctx, task)
		switch {
		case err == nil:
			repaired++
			s.metrics.Repair(distributionTaskIncome, "repaired")
		case errors.Is(err, domain.ErrBatchAlreadyApplied):
			s.metrics.Repair(distributionTaskIncome, "skipped")
		default:
			s.metrics.Repair(distributionTaskIncome, "failed")
			s.logger.Error("task income replay failed",
				zap.Int64("task_id", task.ID),
				zap.Int64("user_id", task.UserID),
				zap.Error(err),
			)
		}
	}
	return repaired, nil
}

// DrainUpgradeRetries replays the payouts named by queued wake-ups ahead of their scheduled
// attempt. A failed wake-up is dropped; the PENDING row still carries the payout.
func (s *RepairService) DrainUpgradeRetries(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}

	processed := 0
	for processed < s.config.BatchSize {
		retry, err := s.queue.Dequeue(ctx)
		if err != nil {
			return processed, err
		}
		if retry == nil {
			break
		}
		processed++

		status, _, err := s.upgrades.DistributeUpgradeCommission(ctx, *retry)
		if err != nil {
			s.metrics.Repair(distributionUpgrade, "deferred")
			s.logger.Warn("upgrade commission wake-up failed",
				zap.String("reference_id", retry.ReferenceID),
				zap.Error(err),
			)
			continue
		}
		s.metrics.Repair(distributionUpgrade, string(status))
	}

	if depth, err := s.queue.Len(ctx); err == nil {
		s.metrics.SetRetryQueueDepth(depth)
	}
	return processed, nil
}

// RepairUpgradeCommissions replays due PENDING payouts with their original reference id.
func (s *RepairService) RepairUpgradeCommissions(ctx context.Context) (int, error) {
	due, err := duePayouts(ctx, s.db, s.now().UTC(), s.config.BatchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, retry := range due {
		status, _, err := s.upgrades.DistributeUpgradeCommission(ctx, retry)
		if err == nil {
			repaired++
			s.metrics.Repair(distributionUpgrade, string(status))
			continue
		}
		if err := s.recordFailure(ctx, retry, err); err != nil {
			return repaired, err
		}
	}
	return repaired, nil
}

func (s *RepairService) recordFailure(ctx context.Context, retry models.CommissionRetry, cause error) error {
	retry.Attempt++
	retry.LastError = cause.Error()
	now := s.now().UTC()

	if retry.Attempt >= s.config.MaxAttempts {
		if err := giveUpPayout(ctx, s.db, retry, now); err != nil {
			return err
		}
		s.metrics.Repair(distributionUpgrade, "dead_letter")
		s.logger.Error("upgrade commission gave up",
			zap.String("reference_id", retry.ReferenceID),
			zap.Int("attempts", retry.Attempt),
			zap.Error(cause),
		)
		if s.queue != nil {
			if err := s.queue.DeadLetter(ctx, retry); err != nil {
				s.logger.Warn("could not copy payout to the dead letter list",
					zap.String("reference_id", retry.ReferenceID),
					zap.Error(err),
				)
			}
		}
		return nil
	}

	delay := nextRetryDelay(retry.Attempt, s.config.InitialBackoff, s.config.MaxBackoff)
	retry.NextAttemptAt = now.Add(delay)
	if err := recordPayoutAttempt(ctx, s.db, retry, now); err != nil {
		return err
	}
	s.metrics.Repair(distributionUpgrade, "requeued")
	s.logger.Warn("upgrade commission retry failed",
		zap.String("reference_id", retry.ReferenceID),
		zap.Int("attempt", retry.Attempt),
		zap.Duration("next_in", delay),
		zap.Error(cause),
	)
	return nil
}

// nextRetryDelay doubles the initial delay per attempt after the first, capped at maxDelay.
func nextRetryDelay(attempt int, initial, maxDelay time.Duration) time.Duration {
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}
