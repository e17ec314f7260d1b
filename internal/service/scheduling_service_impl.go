package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// ErrVersionExists indicates a fork target already naming a scenario.
var ErrVersionExists = errors.New("version already exists")

type schedulingService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewSchedulingService(uow db.UnitOfWork, observers ...UseCaseObserver) SchedulingService {
	return &schedulingService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *schedulingService) Schedule(ctx context.Context, orderCode, code string, version domain.OrderVersion) (err error) {
	version = versionOrBase(version)
	fields := map[string]any{"order": orderCode, "code": code, "version": string(version)}
	defer observe(ctx, s.observer, useCaseSchedule, fields)(&err)

	return s.withElement(ctx, orderCode, code, version, func(sess *orderSession, node domain.NodeID) error {
		return sess.engine.Schedule(node)
	})
}

func (s *schedulingService) Unschedule(ctx context.Context, orderCode, code string, version domain.OrderVersion) (err error) {
	version = versionOrBase(version)
	fields := map[string]any{"order": orderCode, "code": code, "version": string(version)}
	defer observe(ctx, s.observer, useCaseUnschedule, fields)(&err)

	return s.withElement(ctx, orderCode, code, version, func(sess *orderSession, node domain.NodeID) error {
		sess.engine.Unschedule(node)
		return nil
	})
}

// withElement runs fn on the element in version and commits the snapshots.
func (s *schedulingService) withElement(ctx context.Context, orderCode, code string, version domain.OrderVersion,
	fn func(sess *orderSession, node domain.NodeID) error) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
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
		if err := fn(sess, e.Node); err != nil {
			return err
		}
		return sess.commit(ctx, version)
	})
}

func (s *schedulingService) Plan(ctx context.Context, orderCode string, version domain.OrderVersion) (*SyncResult, error) {
	version = versionOrBase(version)
	var result *SyncResult
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		if err := sess.useVersion(ctx, version); err != nil {
			return err
		}
		syncs := sess.engine.CalculateSynchronizationsNeeded(sess.order.Root())
		result = &SyncResult{
			Order:   sess.order,
			Version: version,
			Syncs:   syncs,
			Counts:  scheduling.CountByKind(syncs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *schedulingService) Synchronize(ctx context.Context, orderCode string, version domain.OrderVersion) (result *SyncResult, err error) {
	version = versionOrBase(version)
	fields := map[string]any{"order": orderCode, "version": string(version)}
	defer observe(ctx, s.observer, useCaseSynchronize, fields)(&err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		if err := sess.useVersion(ctx, version); err != nil {
			return err
		}
		root := sess.order.Root()
		syncs := sess.engine.CalculateSynchronizationsNeeded(root)
		if err := sess.repos.tasks.Apply(ctx, sess.order, version, syncs); err != nil {
			return fmt.Errorf("applying synchronizations: %w", err)
		}
		if err := sess.commit(ctx, version); err != nil {
			return err
		}
		result = &SyncResult{
			Order:   sess.order,
			Version: version,
			Syncs:   syncs,
			Counts:  scheduling.CountByKind(syncs),
			Applied: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for kind, n := range result.Counts {
		fields[syncKindField(kind)] = n
	}
	return result, nil
}

func (s *schedulingService) States(ctx context.Context, orderCode string, version domain.OrderVersion) ([]ElementState, error) {
	version = versionOrBase(version)
	var states []ElementState
	err := s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		if err := sess.useVersion(ctx, version); err != nil {
			return err
		}
		o := sess.order
		preOrder(o, func(node domain.NodeID, depth int) {
			st := ElementState{
				Element: o.MustElement(node),
				Depth:   depth,
				State:   sess.engine.StateOf(node).Type(),
				Hours:   o.WorkHours(node),
			}
			if ts := sess.engine.TaskSource(node); ts != nil {
				st.TaskSourceID = ts.ID
				st.TaskGroup = ts.Group
			}
			states = append(states, st)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (s *schedulingService) ForkVersion(ctx context.Context, orderCode string, from, to domain.OrderVersion) (sc *domain.Scenario, err error) {
	from = versionOrBase(from)
	fields := map[string]any{"order": orderCode, "from": string(from), "to": string(to)}
	defer observe(ctx, s.observer, useCaseForkVersion, fields)(&err)

	if to == "" {
		return nil, &domain.ValidationError{Field: "version", Err: fmt.Errorf("%w: is required", ErrInvalidInput)}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		o := sess.order
		parent, err := sess.repos.scenarios.GetByName(ctx, o.ID, string(from))
		if err != nil {
			return fmt.Errorf("version %q of order %q: %w", from, o.Code, err)
		}
		if _, err := sess.repos.scenarios.GetByName(ctx, o.ID, string(to)); err == nil {
			return fmt.Errorf("forking %q: %w", to, ErrVersionExists)
		} else if !isNotFound(err) {
			return err
		}

		sc = &domain.Scenario{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			Name:      string(to),
			ParentID:  parent.ID,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
		if err := sess.repos.scenarios.Create(ctx, sc); err != nil {
			return fmt.Errorf("creating scenario: %w", err)
		}
		fields["snapshots"] = sess.engine.Store().Fork(from, to)
		if err := sess.repos.scheduling.Save(ctx, o, sess.engine.Store(), to); err != nil {
			return fmt.Errorf("saving scheduling data: %w", err)
		}
		if err := sess.repos.tasks.Fork(ctx, o.ID, from, to); err != nil {
			return fmt.Errorf("forking tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *schedulingService) ListVersions(ctx context.Context, orderCode string) (scenarios []*domain.Scenario, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		o, err := repos.orders.GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		scenarios, err = repos.scenarios.ListByOrder(ctx, o.ID)
		return err
	})
	return scenarios, err
}

func (s *schedulingService) Tasks(ctx context.Context, orderCode string, version domain.OrderVersion) (tasks []*domain.Task, err error) {
	version = versionOrBase(version)
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		o, err := repos.orders.GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}
		if _, err := repos.scenarios.GetByName(ctx, o.ID, string(version)); err != nil {
			return fmt.Errorf("version %q of order %q: %w", version, orderCode, err)
		}
		tasks, err = repos.tasks.ListByVersion(ctx, o.ID, version)
		return err
	})
	return tasks, err
}
