package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

const positionColumnsSQL = `id, name, level, deposit_requirement, tasks_per_day, unit_price, validity_days, is_intern`

// PositionCatalog reads the admin-managed positions table.
type PositionCatalog struct {
	db *sql.DB
}

func NewPositionCatalog(db *sql.DB) *PositionCatalog {
	return &PositionCatalog{db: db}
}

func (c *PositionCatalog) Get(ctx context.Context, positionID int64) (*models.Position, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+positionColumnsSQL+` FROM positions WHERE id = $1`, positionID)
	position, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("position %d", positionID))
	}
	return position, err
}

func (c *PositionCatalog) GetByName(ctx context.Context, name string) (*models.Position, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+positionColumnsSQL+` FROM positions WHERE LOWER(name) = LOWER($1)`, name)
	position, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("position %q", name))
	}
	return position, err
}

// List returns every position ordered by level.
func (c *PositionCatalog) List(ctx context.Context) ([]models.Position, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+positionColumnsSQL+` FROM positions ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *position)
	}
	return positions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	err := row.Scan(&p.ID, &p.Name, &p.Level, &p.DepositRequirement, &p.TasksPerDay,
		&p.UnitPrice, &p.ValidityDays, &p.IsIntern)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// positionForPayout loads the position a distribution is priced from. A user pointing at a
// missing position is a configuration fault, not a lookup miss.
func positionForPayout(ctx context.Context, positions PositionLookup, positionID int64) (*models.Position, error) {
	position, err := positions.Get(ctx, positionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewConfigurationError(fmt.Sprintf("position %d is not configured", positionID))
	}
	return position, err
}
