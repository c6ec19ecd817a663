package services

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	"github.com/taskearn/ledger/internal/models"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ApplyBatch(ctx context.Context, batch models.Batch) (*models.BatchResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchResult), args.Error(1)
}

func (m *MockLedger) ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch models.Batch) (*models.BatchResult, error) {
	args := m.Called(ctx, tx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchResult), args.Error(1)
}

func (m *MockLedger) Committed(result *models.BatchResult) {
	m.Called(result)
}

type MockAncestorResolver struct {
	mock.Mock
}

func (m *MockAncestorResolver) ResolveAncestors(ctx context.Context, userID int64) (models.Ancestors, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Ancestors), args.Error(1)
}

type MockPositionLookup struct {
	mock.Mock
}

func (m *MockPositionLookup) Get(ctx context.Context, positionID int64) (*models.Position, error) {
	args := m.Called(ctx, positionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Position), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event models.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRetryQueue struct {
	mock.Mock
}

func (m *MockRetryQueue) Enqueue(ctx context.Context, retry models.CommissionRetry) error {
	args := m.Called(ctx, retry)
	return args.Error(0)
}

func (m *MockRetryQueue) Dequeue(ctx context.Context) (*models.CommissionRetry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionRetry), args.Error(1)
}

func (m *MockRetryQueue) Len(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRetryQueue) DeadLetter(ctx context.Context, retry models.CommissionRetry) error {
	args := m.Called(ctx, retry)
	return args.Error(0)
}

// positionsOf serves fixed positions without a database.
func positionsOf(positions ...models.Position) *MockPositionLookup {
	lookup := &MockPositionLookup{}
	for i := range positions {
		p := positions[i]
		lookup.On("Get", mock.Anything, p.ID).Return(&p, nil).Maybe()
	}
	return lookup
}
