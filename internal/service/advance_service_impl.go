package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
)

var (
	// ErrAdvanceTypeExists indicates an advance type unit name already taken.
	ErrAdvanceTypeExists = errors.New("advance type already exists")

	// ErrMeasurementOutOfRange indicates a reading above the assignment's
	// max value.
	ErrMeasurementOutOfRange = errors.New("measurement exceeds the assignment's max value")
)

type advanceService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewAdvanceService(uow db.UnitOfWork, observers ...UseCaseObserver) AdvanceService {
	return &advanceService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *advanceService) CreateType(ctx context.Context, in CreateAdvanceTypeInput) (*domain.AdvanceType, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	t := &domain.AdvanceType{
		ID:              uuid.New().String(),
		UnitName:        in.UnitName,
		DefaultMaxValue: in.DefaultMaxValue,
		Percentage:      in.Percentage,
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		types := repository.NewSQLiteAdvanceTypeRepo(tx)
		if _, err := types.GetByUnitName(ctx, in.UnitName); err == nil {
			return fmt.Errorf("creating %q: %w", in.UnitName, ErrAdvanceTypeExists)
		} else if !isNotFound(err) {
			return err
		}
		return types.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *advanceService) ListTypes(ctx context.Context) (types []*domain.AdvanceType, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		types, err = repository.NewSQLiteAdvanceTypeRepo(tx).List(ctx)
		return err
	})
	return types, err
}

func (s *advanceService) AddAssignment(ctx context.Context, in AddAssignmentInput) (a *domain.DirectAdvanceAssignment, err error) {
	fields := map[string]any{"order": in.OrderCode, "code": in.ElementCode, "type": in.TypeName}
	defer observe(ctx, s.observer, useCaseAddAssignment, fields)(&err)

	if err = validateInput(in); err != nil {
		return nil, err
	}
	err = s.mutate(ctx, in.OrderCode, func(ctx context.Context, repos txRepos, o *domain.Order) error {
		e, err := elementByCode(o, in.ElementCode)
		if err != nil {
			return err
		}
		if in.TypeName == domain.SubcontractorAdvanceType {
			t, err := subcontractorType(ctx, repos.types)
			if err != nil {
				return err
			}
			a, err = o.AddSubcontractorAdvance(e.Node, uuid.New().String(), t)
			return err
		}

		t, err := repos.types.GetByUnitName(ctx, in.TypeName)
		if err != nil {
			return err
		}
		maxValue := in.MaxValue
		if maxValue == 0 {
			maxValue = t.DefaultMaxValue
		}
		a = &domain.DirectAdvanceAssignment{
			ID:           uuid.New().String(),
			Type:         t,
			ReportGlobal: in.ReportGlobal,
			MaxValue:     maxValue,
		}
		return o.AddAdvanceAssignment(e.Node, a)
	})
	if err != nil {
		return nil, err
	}
	fields["report_global"] = a.ReportGlobal
	return a, nil
}

// subcontractorType returns the predefined subcontractor type, creating it
// on first use.
func subcontractorType(ctx context.Context, types repository.AdvanceTypeRepo) (*domain.AdvanceType, error) {
	t, err := types.GetByUnitName(ctx, domain.SubcontractorAdvanceType)
	if err == nil {
		return t, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	t = &domain.AdvanceType{
		ID:              uuid.New().String(),
		UnitName:        domain.SubcontractorAdvanceType,
		DefaultMaxValue: 100,
		Percentage:      true,
	}
	if err := types.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *advanceService) RemoveAssignment(ctx context.Context, orderCode, elementCode, typeName string) (err error) {
	fields := map[string]any{"order": orderCode, "code": elementCode, "type": typeName}
	defer observe(ctx, s.observer, useCaseRemoveAssignment, fields)(&err)

	return s.mutate(ctx, orderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, a, err := directAssignment(o, elementCode, typeName)
		if err != nil {
			return err
		}
		o.RemoveAdvanceAssignment(e.Node, a)
		return nil
	})
}

func (s *advanceService) AddMeasurement(ctx context.Context, in AddMeasurementInput) (err error) {
	fields := map[string]any{"order": in.OrderCode, "code": in.ElementCode, "type": in.TypeName}
	defer observe(ctx, s.observer, useCaseAddMeasurement, fields)(&err)

	if err = validateInput(in); err != nil {
		return err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	return s.mutate(ctx, in.OrderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, a, err := directAssignment(o, in.ElementCode, in.TypeName)
		if err != nil {
			return err
		}
		if a.MaxValue > 0 && in.Value > a.MaxValue {
			return &domain.ValidationError{Field: "value", Value: fmt.Sprint(in.Value), Err: ErrMeasurementOutOfRange}
		}
		o.AddMeasurement(e.Node, a, domain.AdvanceMeasurement{Date: date, Value: in.Value})
		fields["percentage"] = o.AdvancePercentage(e.Node)
		return nil
	})
}

func directAssignment(o *domain.Order, elementCode, typeName string) (*domain.OrderElement, *domain.DirectAdvanceAssignment, error) {
	e, err := elementByCode(o, elementCode)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range e.DirectAdvances {
		if a.Type != nil && a.Type.UnitName == typeName {
			return e, a, nil
		}
	}
	return nil, nil, fmt.Errorf("advance %q of element %q: %w", typeName, elementCode, repository.ErrNotFound)
}

func (s *advanceService) Progress(ctx context.Context, orderCode string) (rows []ElementProgress, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		o, err := repository.NewSQLiteOrderRepo(tx).GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		preOrder(o, func(node domain.NodeID, depth int) {
			rows = append(rows, ElementProgress{
				Element:    o.MustElement(node),
				Depth:      depth,
				Percentage: o.AdvancePercentage(node),
				Finished:   o.IsFinishedAdvance(node),
			})
		})
		return nil
	})
	return rows, err
}

func (s *advanceService) IsFinished(ctx context.Context, orderCode, code string, version domain.OrderVersion) (finished bool, err error) {
	version = versionOrBase(version)
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		e, err := sess.element(code)
		if err != nil {
			return err
		}
		if err := sess.useVersion(ctx, version); err != nil {
			return err
		}
		finished = sess.engine.IsFinishedSchedulingPointTask(e.Node)
		return nil
	})
	return finished, err
}

// mutate loads the order, applies fn and saves the tree in one transaction.
func (s *advanceService) mutate(ctx context.Context, orderCode string, fn func(ctx context.Context, repos txRepos, o *domain.Order) error) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		o, err := repos.orders.GetByCode(ctx, orderCode)
		if err != nil {
			return fmt.Errorf("loading order %q: %w", orderCode, err)
		}
		if err := fn(ctx, repos, o); err != nil {
			return err
		}
		if err := repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		return nil
	})
}
