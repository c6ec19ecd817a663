package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

var (
	internPosition = models.Position{ID: 1, Name: "Intern", Level: 0, TasksPerDay: 3, UnitPrice: 10, ValidityDays: 4, IsIntern: true}
	p1Position     = models.Position{ID: 2, Name: "P1", Level: 1, DepositRequirement: 3900, TasksPerDay: 5, UnitPrice: 26}
	p2Position     = models.Position{ID: 3, Name: "P2", Level: 2, DepositRequirement: 12000, TasksPerDay: 8, UnitPrice: 52}
)

func TestPositionCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewPositionCatalog(db)

	t.Run("get", func(t *testing.T) {
		mock.ExpectQuery(positionQuery).WithArgs(int64(2)).WillReturnRows(positionRows(p1Position))

		position, err := catalog.Get(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, p1Position, *position)
	})

	t.Run("get missing", func(t *testing.T) {
		mock.ExpectQuery(positionQuery).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(positionColumns))

		_, err := catalog.Get(context.Background(), 99)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("missing position for a payout is a configuration error", func(t *testing.T) {
		mock.ExpectQuery(positionQuery).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(positionColumns))

		_, err := positionForPayout(context.Background(), catalog, 99)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("get by name", func(t *testing.T) {
		mock.ExpectQuery("FROM positions WHERE LOWER\\(name\\) = LOWER\\(\\$1\\)").WithArgs("p1").WillReturnRows(positionRows(p1Position))

		position, err := catalog.GetByName(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), position.ID)
	})

	t.Run("list", func(t *testing.T) {
		rows := sqlmock.NewRows(positionColumns)
		for _, p := range []models.Position{internPosition, p1Position, p2Position} {
			rows.AddRow(p.ID, p.Name, p.Level, p.DepositRequirement, p.TasksPerDay, p.UnitPrice, p.ValidityDays, p.IsIntern)
		}
		mock.ExpectQuery("FROM positions ORDER BY level").WillReturnRows(rows)

		positions, err := catalog.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, positions, 3)
		assert.True(t, positions[0].IsIntern)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
