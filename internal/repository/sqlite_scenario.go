package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
)

// SQLiteScenarioRepo implements ScenarioRepo using a SQLite database. A
// scenario's version token is its name.
type SQLiteScenarioRepo struct {
	db db.DBTX
}

// NewSQLiteScenarioRepo creates a new SQLiteScenarioRepo.
func NewSQLiteScenarioRepo(conn db.DBTX) *SQLiteScenarioRepo {
	return &SQLiteScenarioRepo{db: conn}
}

func (r *SQLiteScenarioRepo) Create(ctx context.Context, s *domain.Scenario) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, order_id, name, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.OrderID, s.Name, nullableString(s.ParentID), s.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting scenario: %w", err)
	}
	s.Version = domain.OrderVersion(s.Name)
	return nil
}

func (r *SQLiteScenarioRepo) GetByName(ctx context.Context, orderID, name string) (*domain.Scenario, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, name, parent_id, created_at FROM scenarios WHERE order_id = ? AND name = ?`,
		orderID, name)
	var s domain.Scenario
	var parentID sql.NullString
	var createdAtStr string
	if err := row.Scan(&s.ID, &s.OrderID, &s.Name, &parentID, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scenario %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning scenario: %w", err)
	}
	return finishScenario(&s, parentID, createdAtStr)
}

func (r *SQLiteScenarioRepo) ListByOrder(ctx context.Context, orderID string) ([]*domain.Scenario, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, name, parent_id, created_at FROM scenarios WHERE order_id = ? ORDER BY created_at, name`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	var result []*domain.Scenario
	for rows.Next() {
		var s domain.Scenario
		var parentID sql.NullString
		var createdAtStr string
		if err := rows.Scan(&s.ID, &s.OrderID, &s.Name, &parentID, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning scenario row: %w", err)
		}
		if _, err := finishScenario(&s, parentID, createdAtStr); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return result, nil
}

func finishScenario(s *domain.Scenario, parentID sql.NullString, createdAtStr string) (*domain.Scenario, error) {
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.CreatedAt = createdAt
	s.ParentID = parentID.String
	s.Version = domain.OrderVersion(s.Name)
	return s, nil
}
