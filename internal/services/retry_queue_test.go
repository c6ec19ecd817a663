package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/models"
)

func setupTestQueue(t *testing.T) (*RedisRetryQueue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := NewRedisRetryQueue(client, "commission_retry_queue")
	queue.now = func() time.Time { return fixedNow }
	return queue, mr
}

func TestRedisRetryQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("due retries come out oldest first", func(t *testing.T) {
		queue, _ := setupTestQueue(t)

		require.NoError(t, queue.Enqueue(ctx, models.CommissionRetry{ReferenceID: "b", NextAttemptAt: fixedNow.Add(-time.Minute)}))
		require.NoError(t, queue.Enqueue(ctx, models.CommissionRetry{ReferenceID: "a", NextAttemptAt: fixedNow.Add(-time.Hour)}))
		require.NoError(t, queue.Enqueue(ctx, models.CommissionRetry{ReferenceID: "later", NextAttemptAt: fixedNow.Add(time.Hour)}))

		n, err := queue.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		first, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", first.ReferenceID)

		second, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", second.ReferenceID)

		none, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Nil(t, none)

		n, _ = queue.Len(ctx)
		assert.Equal(t, int64(1), n)
	})

	t.Run("round trip keeps every field", func(t *testing.T) {
		queue, _ := setupTestQueue(t)

		retry := models.CommissionRetry{
			ReferenceID:   "UPG-1",
			UserID:        9,
			PositionID:    2,
			DepositAmount: 3900,
			Attempt:       2,
			NextAttemptAt: fixedNow.Add(-time.Second),
			LastError:     "connection reset",
		}
		require.NoError(t, queue.Enqueue(ctx, retry))

		got, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, retry.UserID, got.UserID)
		assert.Equal(t, retry.DepositAmount, got.DepositAmount)
		assert.Equal(t, retry.LastError, got.LastError)
		assert.True(t, retry.NextAttemptAt.Equal(got.NextAttemptAt))
	})

	t.Run("dead letters land in their own list", func(t *testing.T) {
		queue, mr := setupTestQueue(t)

		require.NoError(t, queue.DeadLetter(ctx, models.CommissionRetry{ReferenceID: "UPG-9"}))

		items, err := mr.List("commission_retry_queue:dead")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Contains(t, items[0], "UPG-9")
	})
}
