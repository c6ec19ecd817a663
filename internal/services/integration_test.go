package services

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/database"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

// openIntegrationDB connects to a disposable Postgres database. Every table is truncated.
func openIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(20)

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE security_refund_requests, withdrawal_requests, topup_requests,
		upgrade_commission_claims, upgrade_commission_payouts, user_video_tasks, wallet_transactions, referral_hierarchy, users, positions
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func insertIntegrationUser(t *testing.T, db *sql.DB, name string, referrerID *int64, positionID int64, wallet int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO users (username, password, referral_code, referrer_id, current_position_id,
		position_start_date, is_intern, wallet_balance) VALUES ($1, 'x', $2, $3, $4, NOW(), FALSE, $5) RETURNING id`,
		name, name, referrerID, positionID, wallet).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestIntegration_ConcurrentTaskCompletion(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()

	var p1 int64
	require.NoError(t, db.QueryRow(`INSERT INTO positions (name, level, deposit_requirement, tasks_per_day, unit_price, validity_days)
		VALUES ('P1', 1, 3900, 5, 26, 0) RETURNING id`).Scan(&p1))

	r3 := insertIntegrationUser(t, db, "root3", nil, p1, 0)
	r2 := insertIntegrationUser(t, db, "root2", &r3, p1, 0)
	r1 := insertIntegrationUser(t, db, "root1", &r2, p1, 0)
	owner := insertIntegrationUser(t, db, "owner", &r1, p1, 777)

	catalog := NewPositionCatalog(db)
	svc := NewTaskIncomeService(TaskIncomeDeps{
		DB:            db,
		Ledger:        NewLedgerService(db, nil, nil, nil),
		Hierarchy:     NewHierarchyService(db, nil),
		Rates:         testRateTable(),
		Positions:     catalog,
		Gate:          NewTaskGate(db, catalog, time.UTC),
		MinWatchRatio: 0.9,
	})

	const attempts = 100
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		quota     int
		other     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(videoID int64) {
			defer wg.Done()
			_, err := svc.DistributeTaskIncome(ctx, owner, videoID, models.WatchEvidence{WatchedSeconds: 60, VideoDurationSeconds: 60})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrQuotaExceeded):
				quota++
			default:
				other = append(other, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, attempts-5, quota)

	balances := func(id int64) (wallet, commission, earnings int64) {
		require.NoError(t, db.QueryRow(`SELECT wallet_balance, commission_balance, total_earnings FROM users WHERE id = $1`, id).
			Scan(&wallet, &commission, &earnings))
		return
	}

	wallet, commission, earnings := balances(owner)
	assert.Equal(t, int64(777), wallet)
	assert.Equal(t, int64(5*26), commission)
	assert.Equal(t, int64(5*26), earnings)

	_, c1, _ := balances(r1)
	_, c2, _ := balances(r2)
	_, c3, _ := balances(r3)
	assert.Equal(t, int64(5*2), c1)
	assert.Equal(t, int64(5*1), c2)
	assert.Equal(t, int64(0), c3)

	ledger := NewLedgerService(db, nil, nil, nil)
	for _, id := range []int64{owner, r1, r2, r3} {
		drift, err := ledger.VerifyAccount(ctx, id, models.AccountCommission)
		require.NoError(t, err)
		assert.True(t, drift.Consistent, "user %d", id)
	}
}

func TestIntegration_DuplicateVideoIsPaidOnce(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()

	var p1 int64
	require.NoError(t, db.QueryRow(`INSERT INTO positions (name, level, deposit_requirement, tasks_per_day, unit_price, validity_days)
		VALUES ('P1', 1, 3900, 5, 26, 0) RETURNING id`).Scan(&p1))
	owner := insertIntegrationUser(t, db, "owner", nil, p1, 0)

	catalog := NewPositionCatalog(db)
	svc := NewTaskIncomeService(TaskIncomeDeps{
		DB:            db,
		Ledger:        NewLedgerService(db, nil, nil, nil),
		Hierarchy:     NewHierarchyService(db, nil),
		Rates:         testRateTable(),
		Positions:     catalog,
		Gate:          NewTaskGate(db, catalog, time.UTC),
		MinWatchRatio: 0.9,
	})

	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.DistributeTaskIncome(ctx, owner, 42, models.WatchEvidence{WatchedSeconds: 60, VideoDurationSeconds: 60})
		}(i)
	}
	wg.Wait()

	paid := 0
	for _, err := range results {
		if err == nil {
			paid++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)
	}
	assert.Equal(t, 1, paid)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`, owner).Scan(&rows))
	assert.Equal(t, 1, rows)
}
