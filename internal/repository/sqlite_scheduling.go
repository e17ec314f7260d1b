package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// SQLiteSchedulingRepo implements SchedulingRepo using a SQLite database.
type SQLiteSchedulingRepo struct {
	db db.DBTX
}

// NewSQLiteSchedulingRepo creates a new SQLiteSchedulingRepo.
func NewSQLiteSchedulingRepo(conn db.DBTX) *SQLiteSchedulingRepo {
	return &SQLiteSchedulingRepo{db: conn}
}

func (r *SQLiteSchedulingRepo) Load(ctx context.Context, orderID string) (*scheduling.Store, error) {
	sources, err := r.loadTaskSources(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT element_id, version, scheduling_type, task_source_id
		FROM scheduling_data WHERE order_id = ? ORDER BY version, element_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing scheduling data: %w", err)
	}
	defer rows.Close()

	store := scheduling.NewStore()
	for rows.Next() {
		var vd scheduling.VersionData
		var version, typ string
		var taskSourceID sql.NullString
		if err := rows.Scan(&vd.ElementID, &version, &typ, &taskSourceID); err != nil {
			return nil, fmt.Errorf("scanning scheduling data row: %w", err)
		}
		vd.Version = domain.OrderVersion(version)
		vd.Type = scheduling.Type(typ)
		if taskSourceID.Valid {
			ts, ok := sources[taskSourceID.String]
			if !ok {
				return nil, fmt.Errorf("task source %s: %w", taskSourceID.String, ErrNotFound)
			}
			vd.TaskSource = ts
		}
		store.Seed(&vd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduling data: %w", err)
	}
	return store, nil
}

// loadTaskSources returns one value per task source ID, so versions sharing
// a task source share the pointer.
func (r *SQLiteSchedulingRepo) loadTaskSources(ctx context.Context, orderID string) (map[string]*scheduling.TaskSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, element_id, version, is_group FROM task_sources WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing task sources: %w", err)
	}
	sources := make(map[string]*scheduling.TaskSource)
	for rows.Next() {
		var ts scheduling.TaskSource
		var version string
		var isGroup int
		if err := rows.Scan(&ts.ID, &ts.ElementID, &version, &isGroup); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning task source row: %w", err)
		}
		ts.Version = domain.OrderVersion(version)
		ts.Group = intToBool(isGroup)
		sources[ts.ID] = &ts
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating task sources: %w", err)
	}
	rows.Close()

	hours, err := r.db.QueryContext(ctx,
		`SELECT h.task_source_id, h.hours_group_id, h.code, h.working_hours, h.resource_type
		FROM task_source_hours h JOIN task_sources t ON t.id = h.task_source_id
		WHERE t.order_id = ? ORDER BY h.task_source_id, h.position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing task source hours: %w", err)
	}
	defer hours.Close()
	for hours.Next() {
		var taskSourceID string
		var hg domain.HoursGroup
		if err := hours.Scan(&taskSourceID, &hg.ID, &hg.Code, &hg.WorkingHours, &hg.ResourceType); err != nil {
			return nil, fmt.Errorf("scanning task source hours row: %w", err)
		}
		if ts, ok := sources[taskSourceID]; ok {
			ts.HoursGroups = append(ts.HoursGroups, hg)
		}
	}
	if err := hours.Err(); err != nil {
		return nil, fmt.Errorf("iterating task source hours: %w", err)
	}
	return sources, nil
}

func (r *SQLiteSchedulingRepo) Save(ctx context.Context, o *domain.Order, store *scheduling.Store, versions ...domain.OrderVersion) error {
	if len(versions) == 0 {
		versions = store.Versions()
	}
	written := make(map[*scheduling.TaskSource]bool)
	for _, v := range versions {
		for _, vd := range store.Snapshots(v) {
			// Snapshots of detached elements are dropped with their rows.
			if _, ok := o.ElementByID(vd.ElementID); !ok {
				continue
			}
			if ts := vd.TaskSource; ts != nil && !written[ts] {
				if err := r.upsertTaskSource(ctx, o.ID, ts); err != nil {
					return err
				}
				written[ts] = true
			}
			if err := r.upsertSnapshot(ctx, o.ID, vd); err != nil {
				return err
			}
		}
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM task_sources WHERE order_id = ? AND id NOT IN (
			SELECT task_source_id FROM scheduling_data
			WHERE order_id = ? AND task_source_id IS NOT NULL)`, o.ID, o.ID)
	if err != nil {
		return fmt.Errorf("deleting unreferenced task sources: %w", err)
	}
	return nil
}

func (r *SQLiteSchedulingRepo) upsertTaskSource(ctx context.Context, orderID string, ts *scheduling.TaskSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_sources (id, order_id, element_id, version, is_group) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET element_id = excluded.element_id,
			version = excluded.version, is_group = excluded.is_group`,
		ts.ID, orderID, ts.ElementID, string(ts.Version), boolToInt(ts.Group))
	if err != nil {
		return fmt.Errorf("upserting task source: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_source_hours WHERE task_source_id = ?`, ts.ID); err != nil {
		return fmt.Errorf("clearing task source hours: %w", err)
	}
	for i, hg := range ts.HoursGroups {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO task_source_hours (task_source_id, position, hours_group_id, code, working_hours, resource_type)
			VALUES (?, ?, ?, ?, ?, ?)`, ts.ID, i, hg.ID, hg.Code, hg.WorkingHours, hg.ResourceType)
		if err != nil {
			return fmt.Errorf("inserting task source hours: %w", err)
		}
	}
	return nil
}

func (r *SQLiteSchedulingRepo) upsertSnapshot(ctx context.Context, orderID string, vd *scheduling.VersionData) error {
	var taskSourceID interface{}
	if vd.TaskSource != nil {
		taskSourceID = vd.TaskSource.ID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scheduling_data (order_id, element_id, version, scheduling_type, task_source_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(element_id, version) DO UPDATE SET
			scheduling_type = excluded.scheduling_type, task_source_id = excluded.task_source_id`,
		orderID, vd.ElementID, string(vd.Version), string(vd.Type), taskSourceID)
	if err != nil {
		return fmt.Errorf("upserting scheduling data: %w", err)
	}
	return nil
}
