package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/domain"
)

func newTestRefundService(t *testing.T) (*RefundService, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewRefundService(db)
	service.now = func() time.Time { return fixedNow }
	return service, sqlMock
}

func TestRequestRefund(t *testing.T) {
	service, sqlMock := newTestRefundService(t)

	sqlMock.ExpectQuery("INSERT INTO security_refund_requests").
		WithArgs(int64(7), int64(3900), "PENDING", "left platform", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	req, err := service.RequestRefund(context.Background(), 7, 3900, "left platform")
	require.NoError(t, err)
	assert.Equal(t, int64(4), req.ID)

	_, err = service.RequestRefund(context.Background(), 7, -1, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

// Approval only flips the request status; no users or wallet_transactions statements run.
func TestApproveRefund_TouchesNoBalance(t *testing.T) {
	service, sqlMock := newTestRefundService(t)

	sqlMock.ExpectExec("UPDATE security_refund_requests SET status = \\$1, reason = \\$2, processed_at = \\$3 WHERE id = \\$4 AND status = 'PENDING'").
		WithArgs("APPROVED", "", fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, service.ApproveRefund(context.Background(), 4))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestRejectRefund_NotPending(t *testing.T) {
	service, sqlMock := newTestRefundService(t)

	sqlMock.ExpectExec("UPDATE security_refund_requests").
		WithArgs("REJECTED", "duplicate", fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.RejectRefund(context.Background(), 4, "duplicate")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTotalApprovedRefunds(t *testing.T) {
	service, sqlMock := newTestRefundService(t)

	sqlMock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM security_refund_requests WHERE user_id = \\$1 AND status = \\$2").
		WithArgs(int64(7), "APPROVED").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5200))

	total, err := service.TotalApprovedRefunds(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5200), total)
}
