package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/taskearn/ledger/internal/models"
)

// RedisRetryQueue is a sorted set of upgrade payout wake-ups scored by the time they become
// due. Payouts that run out of attempts are copied to a dead-letter list for operators.
type RedisRetryQueue struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewRedisRetryQueue(client *redis.Client, key string) *RedisRetryQueue {
	return &RedisRetryQueue{client: client, key: key, now: time.Now}
}

func (q *RedisRetryQueue) Enqueue(ctx context.Context, retry models.CommissionRetry) error {
	data, err := json.Marshal(retry)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, q.key, &redis.Z{
		Score:  float64(retry.NextAttemptAt.Unix()),
		Member: string(data),
	}).Err()
}

// Dequeue claims the oldest due retry, or returns nil when none is due.
func (q *RedisRetryQueue) Dequeue(ctx context.Context) (*models.CommissionRetry, error) {
	for {
		members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(q.now().Unix(), 10),
			Count: 1,
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("read retry queue: %w", err)
		}
		if len(members) == 0 {
			return nil, nil
		}

		// ZREM decides between workers racing for the same member
		removed, err := q.client.ZRem(ctx, q.key, members[0]).Result()
		if err != nil {
			return nil, fmt.Errorf("claim retry: %w", err)
		}
		if removed == 0 {
			continue
		}

		var retry models.CommissionRetry
		if err := json.Unmarshal([]byte(members[0]), &retry); err != nil {
			return nil, fmt.Errorf("decode retry: %w", err)
		}
		return &retry, nil
	}
}

func (q *RedisRetryQueue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key).Result()
}

func (q *RedisRetryQueue) DeadLetter(ctx context.Context, retry models.CommissionRetry) error {
	data, err := json.Marshal(retry)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key+":dead", string(data)).Err()
}
