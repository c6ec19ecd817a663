package services

import (
	"database/sql/driver"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/taskearn/ledger/internal/config"
	"github.com/taskearn/ledger/internal/models"
)

func TestMain(m *testing.M) {
	config.SetDefaults()
	// Cheap argon2 parameters keep password tests fast.
	viper.Set("argon2.memory", 1024)
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

const (
	lockUserQuery     = "SELECT id, wallet_balance, commission_balance, total_earnings, version FROM users WHERE id = \\$1 FOR UPDATE"
	referenceQuery    = "SELECT EXISTS\\(SELECT 1 FROM wallet_transactions WHERE reference_id = \\$1\\)"
	insertTxQuery     = "INSERT INTO wallet_transactions"
	updateBalancesSQL = "UPDATE users SET wallet_balance = \\$1, commission_balance = \\$2, total_earnings = \\$3, version = version \\+ 1, updated_at = \\$4 WHERE id = \\$5 AND version = \\$6"
	loadUserQuery     = "SELECT id, referrer_id, current_position_id, position_start_date, is_intern, status, wallet_balance, commission_balance, total_earnings, fund_password, version FROM users WHERE id = \\$1"
	positionQuery     = "SELECT id, name, level, deposit_requirement, tasks_per_day, unit_price, validity_days, is_intern FROM positions WHERE id = \\$1"
)

var userColumns = []string{
	"id", "referrer_id", "current_position_id", "position_start_date", "is_intern", "status",
	"wallet_balance", "commission_balance", "total_earnings", "fund_password", "version",
}

var positionColumns = []string{
	"id", "name", "level", "deposit_requirement", "tasks_per_day", "unit_price", "validity_days", "is_intern",
}

func int64Ptr(v int64) *int64 { return &v }

// userRow describes a users row for loadUser expectations.
type userRow struct {
	id         int64
	referrerID any
	positionID any
	startDate  any
	isIntern   bool
	status     string
	wallet     int64
	commission int64
	earnings   int64
	fundPass   any
	version    int
}

func (u userRow) rows() *sqlmock.Rows {
	status := u.status
	if status == "" {
		status = string(models.UserStatusActive)
	}
	version := u.version
	if version == 0 {
		version = 1
	}
	return sqlmock.NewRows(userColumns).AddRow(
		u.id, u.referrerID, u.positionID, u.startDate, u.isIntern, status,
		u.wallet, u.commission, u.earnings, u.fundPass, version,
	)
}

func positionRows(p models.Position) *sqlmock.Rows {
	return sqlmock.NewRows(positionColumns).AddRow(
		p.ID, p.Name, p.Level, p.DepositRequirement, p.TasksPerDay, p.UnitPrice, p.ValidityDays, p.IsIntern,
	)
}

func expectLock(mock sqlmock.Sqlmock, id, wallet, commission, earnings int64, version int) {
	mock.ExpectQuery(lockUserQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "wallet_balance", "commission_balance", "total_earnings", "version"}).
			AddRow(id, wallet, commission, earnings, version))
}

func expectReference(mock sqlmock.Sqlmock, referenceID string, exists bool) {
	mock.ExpectQuery(referenceQuery).
		WithArgs(referenceID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectInsertTx(mock sqlmock.Sqlmock, rowID, userID int64, txType models.TransactionType, amount, balanceAfter int64, referenceID string) {
	mock.ExpectQuery(insertTxQuery).
		WithArgs(userID, string(txType), amount, balanceAfter, sqlmock.AnyArg(), referenceID, string(models.TxStatusCompleted), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(rowID))
}

func expectBalanceUpdate(mock sqlmock.Sqlmock, userID, wallet, commission, earnings int64, version int) {
	mock.ExpectExec(updateBalancesSQL).
		WithArgs(wallet, commission, earnings, sqlmock.AnyArg(), userID, version).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// anyTime matches any time.Time argument.
type anyTime struct{}

func (anyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}
