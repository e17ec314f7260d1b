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
)

// SQLiteOrderRepo implements OrderRepo using a SQLite database.
type SQLiteOrderRepo struct {
	db db.DBTX
}

// NewSQLiteOrderRepo creates a new SQLiteOrderRepo.
func NewSQLiteOrderRepo(conn db.DBTX) *SQLiteOrderRepo {
	return &SQLiteOrderRepo{db: conn}
}

func (r *SQLiteOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, code, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code, name = excluded.name,
			description = excluded.description, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.Code, o.Name, o.Description,
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting order: %w", err)
	}

	elements := o.Elements()
	if err := r.deleteDetached(ctx, o.ID, elements); err != nil {
		return err
	}

	positions := make(map[domain.NodeID]int, len(elements))
	for _, e := range elements {
		for i, c := range e.Children {
			positions[c] = i
		}
	}

	for _, e := range elements {
		var parentID interface{}
		if e.Parent != domain.NoNode {
			parentID = o.MustElement(e.Parent).ID
		}
		if err := r.upsertElement(ctx, o.ID, parentID, positions[e.Node], e); err != nil {
			return err
		}
		if err := r.replaceCollections(ctx, e); err != nil {
			return fmt.Errorf("saving element %q: %w", e.Code, err)
		}
	}
	for _, e := range elements {
		e.Persisted = true
	}
	return nil
}

// deleteDetached removes the rows of elements no longer in the tree. Their
// subtrees and scheduling data go with them through cascades.
func (r *SQLiteOrderRepo) deleteDetached(ctx context.Context, orderID string, live []*domain.OrderElement) error {
	args := make([]interface{}, 0, len(live)+1)
	args = append(args, orderID)
	for _, e := range live {
		args = append(args, e.ID)
	}
	query := fmt.Sprintf(`DELETE FROM order_elements WHERE order_id = ? AND id NOT IN (%s)`, placeholders(len(live)))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting detached elements: %w", err)
	}
	return nil
}

func (r *SQLiteOrderRepo) upsertElement(ctx context.Context, orderID string, parentID interface{}, position int, e *domain.OrderElement) error {
	query := `INSERT INTO order_elements (id, order_id, parent_id, position, code, external_code, name,
			description, kind, init_date, deadline, children_advance, template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id, position = excluded.position,
			code = excluded.code, external_code = excluded.external_code,
			name = excluded.name, description = excluded.description,
			kind = excluded.kind, init_date = excluded.init_date,
			deadline = excluded.deadline, children_advance = excluded.children_advance,
			template = excluded.template, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, orderID, parentID, position,
		e.Code, e.ExternalCode, e.Name, e.Description,
		string(e.Kind),
		nullableTimeToString(e.InitDate, time.RFC3339),
		nullableTimeToString(e.Deadline, time.RFC3339),
		boolToInt(e.ChildrenAdvance),
		e.Template,
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting element %q: %w", e.Code, err)
	}
	return nil
}

// replaceCollections rewrites every child collection of e. IDs missing on
// new entries are minted here.
func (r *SQLiteOrderRepo) replaceCollections(ctx context.Context, e *domain.OrderElement) error {
	for _, table := range []string{"hours_groups", "element_labels", "material_assignments",
		"quality_forms", "criterion_requirements", "advance_assignments"} {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE element_id = ?`, e.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i := range e.HoursGroups {
		hg := &e.HoursGroups[i]
		if hg.ID == "" {
			hg.ID = uuid.New().String()
		}
		_, err := r.db.ExecContext(ctx, `INSERT INTO hours_groups (id, element_id, position, code, working_hours, resource_type)
			VALUES (?, ?, ?, ?, ?, ?)`, hg.ID, e.ID, i, hg.Code, hg.WorkingHours, hg.ResourceType)
		if err != nil {
			return fmt.Errorf("inserting hours group: %w", err)
		}
	}

	for _, l := range e.Labels {
		_, err := r.db.ExecContext(ctx, `INSERT INTO element_labels (element_id, code, type, name) VALUES (?, ?, ?, ?)`,
			e.ID, l.Code, l.Type, l.Name)
		if err != nil {
			return fmt.Errorf("inserting label: %w", err)
		}
	}

	for _, m := range e.Materials {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		_, err := r.db.ExecContext(ctx, `INSERT INTO material_assignments (id, element_id, material_code, units, unit_price)
			VALUES (?, ?, ?, ?, ?)`, m.ID, e.ID, m.MaterialCode, m.Units, m.UnitPrice)
		if err != nil {
			return fmt.Errorf("inserting material assignment: %w", err)
		}
	}

	for _, q := range e.QualityForms {
		_, err := r.db.ExecContext(ctx, `INSERT INTO quality_forms (element_id, form_name) VALUES (?, ?)`, e.ID, q.FormName)
		if err != nil {
			return fmt.Errorf("inserting quality form: %w", err)
		}
	}

	for _, c := range e.Criteria {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		_, err := r.db.ExecContext(ctx, `INSERT INTO criterion_requirements (id, element_id, criterion, direct, valid, parent_id)
			VALUES (?, ?, ?, ?, ?, ?)`, c.ID, e.ID, c.Criterion, boolToInt(c.Direct), boolToInt(c.Valid), c.ParentID)
		if err != nil {
			return fmt.Errorf("inserting criterion requirement: %w", err)
		}
	}

	return r.insertAdvances(ctx, e)
}

func (r *SQLiteOrderRepo) insertAdvances(ctx context.Context, e *domain.OrderElement) error {
	insert := `INSERT INTO advance_assignments (id, element_id, type_id, indirect, report_global, max_value)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, a := range e.DirectAdvances {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if _, err := r.db.ExecContext(ctx, insert, a.ID, e.ID, a.Type.ID, 0, boolToInt(a.ReportGlobal), a.MaxValue); err != nil {
			return fmt.Errorf("inserting advance assignment: %w", err)
		}
		for _, m := range a.Measurements {
			_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO advance_measurements (assignment_id, date, value) VALUES (?, ?, ?)`,
				a.ID, m.Date.UTC().Format(time.RFC3339), m.Value)
			if err != nil {
				return fmt.Errorf("inserting advance measurement: %w", err)
			}
		}
	}
	for _, a := range e.IndirectAdvances {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if _, err := r.db.ExecContext(ctx, insert, a.ID, e.ID, a.Type.ID, 1, boolToInt(a.ReportGlobal), 0); err != nil {
			return fmt.Errorf("inserting indirect advance assignment: %w", err)
		}
	}
	return nil
}

func (r *SQLiteOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var code, name, description, createdAtStr, updatedAtStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, description, created_at, updated_at FROM orders WHERE id = ?`, id,
	).Scan(&code, &name, &description, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	createdAt, updatedAt, err := parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, err
	}

	o := domain.NewOrder(id, code, name, createdAt)
	o.Description = description
	o.UpdatedAt = updatedAt

	if err := r.loadTree(ctx, o); err != nil {
		return nil, err
	}
	if err := r.loadCollections(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *SQLiteOrderRepo) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE code = ?`, code).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %q: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up order by code: %w", err)
	}
	return r.GetByID(ctx, id)
}

// loadTree restores the elements parents first, siblings in position order.
func (r *SQLiteOrderRepo) loadTree(ctx context.Context, o *domain.Order) error {
	query := `SELECT id, parent_id, code, external_code, name, description, kind,
			init_date, deadline, children_advance, template, created_at, updated_at
		FROM order_elements WHERE order_id = ? ORDER BY position, rowid`
	rows, err := r.db.QueryContext(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("listing order elements: %w", err)
	}
	defer rows.Close()

	var root *domain.OrderElement
	children := make(map[string][]*domain.OrderElement)
	for rows.Next() {
		var e domain.OrderElement
		var parentID, initDate, deadline sql.NullString
		var kind, createdAtStr, updatedAtStr string
		var childrenAdvance int
		err := rows.Scan(&e.ID, &parentID, &e.Code, &e.ExternalCode, &e.Name, &e.Description, &kind,
			&initDate, &deadline, &childrenAdvance, &e.Template, &createdAtStr, &updatedAtStr)
		if err != nil {
			return fmt.Errorf("scanning order element: %w", err)
		}
		e.Kind = domain.ElementKind(kind)
		e.InitDate = parseNullableTime(initDate, time.RFC3339)
		e.Deadline = parseNullableTime(deadline, time.RFC3339)
		e.ChildrenAdvance = intToBool(childrenAdvance)
		e.Persisted = true
		if e.CreatedAt, e.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr); err != nil {
			return err
		}
		if !parentID.Valid {
			root = &e
			continue
		}
		children[parentID.String] = append(children[parentID.String], &e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order elements: %w", err)
	}
	if root == nil {
		return fmt.Errorf("order %s has no root element", o.ID)
	}

	o.RestoreRoot(root)
	queue := []string{root.ID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, e := range children[parent] {
			if _, err := o.Restore(parent, e); err != nil {
				return err
			}
			queue = append(queue, e.ID)
		}
	}
	return nil
}

func (r *SQLiteOrderRepo) loadCollections(ctx context.Context, o *domain.Order) error {
	byID := make(map[string]*domain.OrderElement)
	for _, e := range o.Elements() {
		byID[e.ID] = e
	}

	err := r.scanEach(ctx, `SELECT h.element_id, h.id, h.code, h.working_hours, h.resource_type
		FROM hours_groups h JOIN order_elements e ON e.id = h.element_id
		WHERE e.order_id = ? ORDER BY h.position`, o.ID, func(rows *sql.Rows) error {
		var elementID string
		var hg domain.HoursGroup
		if err := rows.Scan(&elementID, &hg.ID, &hg.Code, &hg.WorkingHours, &hg.ResourceType); err != nil {
			return err
		}
		if e, ok := byID[elementID]; ok {
			e.HoursGroups = append(e.HoursGroups, hg)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading hours groups: %w", err)
	}

	err = r.scanEach(ctx, `SELECT l.element_id, l.code, l.type, l.name
		FROM element_labels l JOIN order_elements e ON e.id = l.element_id
		WHERE e.order_id = ? ORDER BY l.rowid`, o.ID, func(rows *sql.Rows) error {
		var elementID string
		var l domain.Label
		if err := rows.Scan(&elementID, &l.Code, &l.Type, &l.Name); err != nil {
			return err
		}
		if e, ok := byID[elementID]; ok {
			e.Labels = append(e.Labels, l)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading labels: %w", err)
	}

	err = r.scanEach(ctx, `SELECT m.element_id, m.id, m.material_code, m.units, m.unit_price
		FROM material_assignments m JOIN order_elements e ON e.id = m.element_id
		WHERE e.order_id = ? ORDER BY m.rowid`, o.ID, func(rows *sql.Rows) error {
		var elementID string
		var m domain.MaterialAssignment
		if err := rows.Scan(&elementID, &m.ID, &m.MaterialCode, &m.Units, &m.UnitPrice); err != nil {
			return err
		}
		if e, ok := byID[elementID]; ok {
			e.Materials = append(e.Materials, &m)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading materials: %w", err)
	}

	err = r.scanEach(ctx, `SELECT q.element_id, q.form_name
		FROM quality_forms q JOIN order_elements e ON e.id = q.element_id
		WHERE e.order_id = ? ORDER BY q.rowid`, o.ID, func(rows *sql.Rows) error {
		var elementID string
		var q domain.TaskQualityForm
		if err := rows.Scan(&elementID, &q.FormName); err != nil {
			return err
		}
		if e, ok := byID[elementID]; ok {
			e.QualityForms = append(e.QualityForms, q)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading quality forms: %w", err)
	}

	err = r.scanEach(ctx, `SELECT c.element_id, c.id, c.criterion, c.direct, c.valid, c.parent_id
		FROM criterion_requirements c JOIN order_elements e ON e.id = c.element_id
		WHERE e.order_id = ? ORDER BY c.rowid`, o.ID, func(rows *sql.Rows) error {
		var elementID string
		var c domain.CriterionRequirement
		var direct, valid int
		if err := rows.Scan(&elementID, &c.ID, &c.Criterion, &direct, &valid, &c.ParentID); err != nil {
			return err
		}
		c.Direct = intToBool(direct)
		c.Valid = intToBool(valid)
		if e, ok := byID[elementID]; ok {
			e.Criteria = append(e.Criteria, &c)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading criterion requirements: %w", err)
	}

	return r.loadAdvances(ctx, o.ID, byID)
}

func (r *SQLiteOrderRepo) loadAdvances(ctx context.Context, orderID string, byID map[string]*domain.OrderElement) error {
	types, err := NewSQLiteAdvanceTypeRepo(r.db).List(ctx)
	if err != nil {
		return err
	}
	typeByID := make(map[string]*domain.AdvanceType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	direct := make(map[string]*domain.DirectAdvanceAssignment)
	err = r.scanEach(ctx, `SELECT a.element_id, a.id, a.type_id, a.indirect, a.report_global, a.max_value
		FROM advance_assignments a JOIN order_elements e ON e.id = a.element_id
		WHERE e.order_id = ? ORDER BY a.rowid`, orderID, func(rows *sql.Rows) error {
		var elementID, id, typeID string
		var indirect, reportGlobal int
		var maxValue float64
		if err := rows.Scan(&elementID, &id, &typeID, &indirect, &reportGlobal, &maxValue); err != nil {
			return err
		}
		e, ok := byID[elementID]
		if !ok {
			return nil
		}
		t, ok := typeByID[typeID]
		if !ok {
			return fmt.Errorf("advance type %s: %w", typeID, ErrNotFound)
		}
		if intToBool(indirect) {
			e.IndirectAdvances = append(e.IndirectAdvances, &domain.IndirectAdvanceAssignment{
				ID: id, Type: t, ReportGlobal: intToBool(reportGlobal),
			})
			return nil
		}
		a := &domain.DirectAdvanceAssignment{ID: id, Type: t, ReportGlobal: intToBool(reportGlobal), MaxValue: maxValue}
		e.DirectAdvances = append(e.DirectAdvances, a)
		direct[id] = a
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading advance assignments: %w", err)
	}

	err = r.scanEach(ctx, `SELECT m.assignment_id, m.date, m.value
		FROM advance_measurements m
		JOIN advance_assignments a ON a.id = m.assignment_id
		JOIN order_elements e ON e.id = a.element_id
		WHERE e.order_id = ? ORDER BY m.date`, orderID, func(rows *sql.Rows) error {
		var assignmentID, dateStr string
		var value float64
		if err := rows.Scan(&assignmentID, &dateStr, &value); err != nil {
			return err
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return fmt.Errorf("parsing measurement date: %w", err)
		}
		if a, ok := direct[assignmentID]; ok {
			a.Measurements = append(a.Measurements, domain.AdvanceMeasurement{Date: date, Value: value})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading advance measurements: %w", err)
	}
	return nil
}

// scanEach runs query with a single argument and calls fn per row.
func (r *SQLiteOrderRepo) scanEach(ctx context.Context, query string, arg interface{}, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *SQLiteOrderRepo) List(ctx context.Context) ([]OrderSummary, error) {
	query := `SELECT o.id, o.code, o.name, o.created_at,
			(SELECT COUNT(*) FROM order_elements e WHERE e.order_id = o.id)
		FROM orders o ORDER BY o.created_at, o.code`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var result []OrderSummary
	for rows.Next() {
		var s OrderSummary
		var createdAtStr string
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &createdAtStr, &s.ElementCount); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return result, nil
}

func (r *SQLiteOrderRepo) CodeInUse(ctx context.Context, code, exceptOrderID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_elements WHERE code = ? AND order_id != ?`, code, exceptOrderID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking element code: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteOrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return nil
}
