package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database. It plays the
// scheduling subsystem: tasks are keyed by (order, version, element).
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Apply(ctx context.Context, o *domain.Order, version domain.OrderVersion, syncs []scheduling.Synchronization) error {
	for _, s := range syncs {
		if _, err := r.apply(ctx, o, version, s, nil); err != nil {
			return err
		}
	}
	return nil
}

// apply executes s under the group task parentID (nil at the top) and
// returns the ID of the task it touched.
func (r *SQLiteTaskRepo) apply(ctx context.Context, o *domain.Order, version domain.OrderVersion, s scheduling.Synchronization, parentID interface{}) (string, error) {
	ts := s.TaskSource
	switch s.Kind {
	case scheduling.MustRemove:
		var groupID sql.NullString
		err := r.db.QueryRowContext(ctx,
			`SELECT parent_task_id FROM tasks WHERE order_id = ? AND version = ? AND task_source_id = ?`,
			o.ID, string(version), ts.ID).Scan(&groupID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("reading task of %s: %w", ts.ElementID, err)
		}
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM tasks WHERE order_id = ? AND version = ? AND task_source_id = ?`,
			o.ID, string(version), ts.ID)
		if err != nil {
			return "", fmt.Errorf("removing task of %s: %w", ts.ElementID, err)
		}
		// Groups left behind shrink by the removed hours.
		for groupID.Valid {
			if err := r.sumGroup(ctx, groupID.String); err != nil {
				return "", err
			}
			err := r.db.QueryRowContext(ctx, `SELECT parent_task_id FROM tasks WHERE id = ?`, groupID.String).Scan(&groupID)
			if err != nil {
				return "", fmt.Errorf("reading group task: %w", err)
			}
		}
		return "", nil

	case scheduling.MustAdd, scheduling.ReplaceHoursGroup:
		return r.upsertTask(ctx, o, version, ts, parentID, false, workHours(s.HoursGroups))

	case scheduling.MustAddGroup, scheduling.ModifyGroup:
		id, err := r.upsertTask(ctx, o, version, ts, parentID, true, 0)
		if err != nil {
			return "", err
		}
		for _, c := range s.Children {
			if _, err := r.apply(ctx, o, version, c, id); err != nil {
				return "", err
			}
		}
		if err := r.sumGroup(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}
	return "", fmt.Errorf("unknown synchronization kind %q", s.Kind)
}

// upsertTask creates or rebinds the task of ts's element. An existing task
// keeps its parent unless parentID is given.
func (r *SQLiteTaskRepo) upsertTask(ctx context.Context, o *domain.Order, version domain.OrderVersion,
	ts *scheduling.TaskSource, parentID interface{}, group bool, hours int) (string, error) {
	name := ts.ElementID
	if e, ok := o.ElementByID(ts.ElementID); ok {
		name = e.Name
	}
	now := nowUTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, order_id, version, element_id, task_source_id, parent_task_id,
			is_group, name, work_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id, version, element_id) DO UPDATE SET
			task_source_id = excluded.task_source_id,
			parent_task_id = COALESCE(excluded.parent_task_id, tasks.parent_task_id),
			is_group = excluded.is_group, name = excluded.name,
			work_hours = excluded.work_hours, updated_at = excluded.updated_at`,
		uuid.New().String(), o.ID, string(version), ts.ElementID, ts.ID, parentID,
		boolToInt(group), name, hours, now, now)
	if err != nil {
		return "", fmt.Errorf("upserting task of %s: %w", ts.ElementID, err)
	}

	var id string
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM tasks WHERE order_id = ? AND version = ? AND element_id = ?`,
		o.ID, string(version), ts.ElementID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("reading task of %s: %w", ts.ElementID, err)
	}
	return id, nil
}

// sumGroup sets the hours of group task id to the sum of its members.
func (r *SQLiteTaskRepo) sumGroup(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET work_hours = (
			SELECT COALESCE(SUM(c.work_hours), 0) FROM tasks c WHERE c.parent_task_id = tasks.id)
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("summing group task hours: %w", err)
	}
	return nil
}

func workHours(hgs []domain.HoursGroup) int {
	total := 0
	for _, hg := range hgs {
		total += hg.WorkingHours
	}
	return total
}

func (r *SQLiteTaskRepo) ListByVersion(ctx context.Context, orderID string, version domain.OrderVersion) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, version, element_id, task_source_id, parent_task_id,
			is_group, name, work_hours, created_at, updated_at
		FROM tasks WHERE order_id = ? AND version = ? ORDER BY rowid`, orderID, string(version))
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var result []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return result, nil
}

func scanTask(rows *sql.Rows) (*domain.Task, error) {
	var t domain.Task
	var version, createdAtStr, updatedAtStr string
	var parentID sql.NullString
	var isGroup int
	err := rows.Scan(&t.ID, &t.OrderID, &version, &t.ElementID, &t.TaskSourceID, &parentID,
		&isGroup, &t.Name, &t.WorkHours, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("scanning task row: %w", err)
	}
	t.Version = domain.OrderVersion(version)
	t.ParentID = parentID.String
	t.Group = intToBool(isGroup)
	if t.CreatedAt, t.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteTaskRepo) Fork(ctx context.Context, orderID string, from, to domain.OrderVersion) error {
	tasks, err := r.ListByVersion(ctx, orderID, from)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	var existing int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE order_id = ? AND version = ?`,
		orderID, string(to)).Scan(&existing)
	if err != nil {
		return fmt.Errorf("counting tasks of %s: %w", to, err)
	}
	if existing > 0 {
		return fmt.Errorf("forking tasks into %s: %w", to, errVersionHasTasks)
	}

	ids := make(map[string]string, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = uuid.New().String()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range tasks {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO tasks (id, order_id, version, element_id, task_source_id, parent_task_id,
				is_group, name, work_hours, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
			ids[t.ID], orderID, string(to), t.ElementID, t.TaskSourceID,
			boolToInt(t.Group), t.Name, t.WorkHours, now, now)
		if err != nil {
			return fmt.Errorf("copying task of %s: %w", t.ElementID, err)
		}
	}
	for _, t := range tasks {
		if t.ParentID == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, `UPDATE tasks SET parent_task_id = ? WHERE id = ?`,
			ids[t.ParentID], ids[t.ID]); err != nil {
			return fmt.Errorf("linking copied task of %s: %w", t.ElementID, err)
		}
	}
	return nil
}

var errVersionHasTasks = errors.New("version already has tasks")
