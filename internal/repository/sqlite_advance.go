package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
)

// SQLiteAdvanceTypeRepo implements AdvanceTypeRepo using a SQLite database.
type SQLiteAdvanceTypeRepo struct {
	db db.DBTX
}

// NewSQLiteAdvanceTypeRepo creates a new SQLiteAdvanceTypeRepo.
func NewSQLiteAdvanceTypeRepo(conn db.DBTX) *SQLiteAdvanceTypeRepo {
	return &SQLiteAdvanceTypeRepo{db: conn}
}

const advanceTypeColumns = `id, unit_name, default_max_value, percentage`

func (r *SQLiteAdvanceTypeRepo) Create(ctx context.Context, t *domain.AdvanceType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO advance_types (`+advanceTypeColumns+`) VALUES (?, ?, ?, ?)`,
		t.ID, t.UnitName, t.DefaultMaxValue, boolToInt(t.Percentage),
	)
	if err != nil {
		return fmt.Errorf("inserting advance type: %w", err)
	}
	return nil
}

func (r *SQLiteAdvanceTypeRepo) GetByID(ctx context.Context, id string) (*domain.AdvanceType, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+advanceTypeColumns+` FROM advance_types WHERE id = ?`, id)
	return r.scanAdvanceType(row, id)
}

func (r *SQLiteAdvanceTypeRepo) GetByUnitName(ctx context.Context, unitName string) (*domain.AdvanceType, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+advanceTypeColumns+` FROM advance_types WHERE unit_name = ?`, unitName)
	return r.scanAdvanceType(row, unitName)
}

func (r *SQLiteAdvanceTypeRepo) List(ctx context.Context) ([]*domain.AdvanceType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+advanceTypeColumns+` FROM advance_types ORDER BY unit_name`)
	if err != nil {
		return nil, fmt.Errorf("listing advance types: %w", err)
	}
	defer rows.Close()

	var result []*domain.AdvanceType
	for rows.Next() {
		var t domain.AdvanceType
		var percentage int
		if err := rows.Scan(&t.ID, &t.UnitName, &t.DefaultMaxValue, &percentage); err != nil {
			return nil, fmt.Errorf("scanning advance type row: %w", err)
		}
		t.Percentage = intToBool(percentage)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating advance types: %w", err)
	}
	return result, nil
}

func (r *SQLiteAdvanceTypeRepo) scanAdvanceType(row *sql.Row, key string) (*domain.AdvanceType, error) {
	var t domain.AdvanceType
	var percentage int
	if err := row.Scan(&t.ID, &t.UnitName, &t.DefaultMaxValue, &percentage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("advance type %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning advance type: %w", err)
	}
	t.Percentage = intToBool(percentage)
	return &t, nil
}
