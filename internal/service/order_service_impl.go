package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

type orderService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewOrderService(uow db.UnitOfWork, observers ...UseCaseObserver) OrderService {
	return &orderService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (o *domain.Order, err error) {
	fields := map[string]any{"order": in.Code}
	defer observe(ctx, s.observer, useCaseCreateOrder, fields)(&err)

	if err = validateInput(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	o = domain.NewOrder(uuid.New().String(), in.Code, in.Name, now)
	o.Description = in.Description
	o.MustElement(o.Root()).Description = in.Description

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if err := checkCodeFree(ctx, repos.orders, in.Code, ""); err != nil {
			return err
		}
		if err := repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		return repos.scenarios.Create(ctx, &domain.Scenario{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			Name:      string(domain.BaseVersion),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	fields["order_id"] = o.ID
	return o, nil
}

func (s *orderService) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		o, err = reposFor(tx).orders.GetByID(ctx, id)
		return err
	})
	return o, err
}

func (s *orderService) GetByCode(ctx context.Context, code string) (o *domain.Order, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		o, err = reposFor(tx).orders.GetByCode(ctx, code)
		return err
	})
	return o, err
}

func (s *orderService) List(ctx context.Context) (summaries []repository.OrderSummary, err error) {
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		summaries, err = reposFor(tx).orders.List(ctx)
		return err
	})
	return summaries, err
}

func (s *orderService) Delete(ctx context.Context, code string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		o, err := repos.orders.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		return repos.orders.Delete(ctx, o.ID)
	})
}

func (s *orderService) AddElement(ctx context.Context, in AddElementInput) (e *domain.OrderElement, err error) {
	fields := map[string]any{"order": in.OrderCode, "code": in.Code, "schedule": in.Schedule}
	defer observe(ctx, s.observer, useCaseAddElement, fields)(&err)

	if err = validateInput(in); err != nil {
		return nil, err
	}
	if in.Kind == string(domain.KindGroup) && in.Hours > 0 {
		return nil, &domain.ValidationError{Field: "hours", Value: fmt.Sprint(in.Hours), Err: domain.ErrNotLeaf}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), in.OrderCode)
		if err != nil {
			return err
		}
		o := sess.order
		if err := checkCodeFree(ctx, sess.repos.orders, in.Code, o.ID); err != nil {
			return err
		}
		parent := o.Root()
		if in.ParentCode != "" {
			p, err := sess.element(in.ParentCode)
			if err != nil {
				return err
			}
			parent = p.Node
		}

		now := time.Now().UTC().Truncate(time.Second)
		e = &domain.OrderElement{
			ID:        uuid.New().String(),
			Code:      in.Code,
			Name:      in.Name,
			Kind:      domain.ElementKind(in.Kind),
			InitDate:  in.InitDate,
			Deadline:  in.Deadline,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if e.Kind == domain.KindLeaf && in.Hours > 0 {
			e.HoursGroups = []domain.HoursGroup{{ID: uuid.New().String(), Code: in.Code, WorkingHours: in.Hours}}
		}
		node, err := o.Attach(parent, e)
		if err != nil {
			return err
		}
		if in.Template != "" {
			e.InitializeTemplate(in.Template)
		}
		o.InheritCriteria(node, func() string { return uuid.New().String() })

		version := versionOrBase(in.Version)
		if in.Schedule {
			if err := sess.useVersion(ctx, version); err != nil {
				return err
			}
			if err := sess.engine.InitializeType(node, scheduling.SchedulingPoint); err != nil {
				return err
			}
		}

		if err := sess.repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		if in.Schedule {
			return sess.commit(ctx, version)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *orderService) RemoveElement(ctx context.Context, orderCode, code string) (err error) {
	fields := map[string]any{"order": orderCode, "code": code}
	defer observe(ctx, s.observer, useCaseRemoveElement, fields)(&err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sess, err := openSession(ctx, reposFor(tx), orderCode)
		if err != nil {
			return err
		}
		e, err := sess.element(code)
		if err != nil {
			return err
		}
		o := sess.order
		if e.Node == o.Root() {
			return fmt.Errorf("removing %q: %w", code, domain.ErrRootElement)
		}

		versions, err := sess.versions(ctx)
		if err != nil {
			return err
		}
		removed := 0
		for _, v := range versions {
			sess.engine.UseSchedulingDataFor(o.Root(), v)
			syncs := sess.engine.CalculateRemovalOf(e.Node)
			if err := sess.repos.tasks.Apply(ctx, o, v, syncs); err != nil {
				return fmt.Errorf("removing tasks of %q from %s: %w", code, v, err)
			}
			sess.engine.WriteSchedulingDataChanges(o.Root())
			removed += len(syncs)
		}
		fields["task_sources_removed"] = removed

		if err := o.RemoveElement(e.Node); err != nil {
			return err
		}
		if err := sess.repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		if err := sess.repos.scheduling.Save(ctx, o, sess.engine.Store()); err != nil {
			return fmt.Errorf("saving scheduling data: %w", err)
		}
		return nil
	})
}

func (s *orderService) ConvertToGroup(ctx context.Context, orderCode, code string) (child *domain.OrderElement, err error) {
	err = s.mutate(ctx, orderCode, func(ctx context.Context, repos txRepos, o *domain.Order) error {
		e, err := elementByCode(o, code)
		if err != nil {
			return err
		}
		if err := checkCodeFree(ctx, repos.orders, code+"-1", o.ID); err != nil {
			return err
		}
		node, err := o.ConvertToGroup(e.Node, uuid.New().String())
		if err != nil {
			return err
		}
		child = o.MustElement(node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

func (s *orderService) AddHoursGroup(ctx context.Context, in AddHoursGroupInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	return s.mutate(ctx, in.OrderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, err := elementByCode(o, in.ElementCode)
		if err != nil {
			return err
		}
		return o.AddHoursGroup(e.Node, domain.HoursGroup{
			ID:           uuid.New().String(),
			Code:         in.Code,
			WorkingHours: in.Hours,
			ResourceType: in.ResourceType,
		})
	})
}

func (s *orderService) AddLabel(ctx context.Context, orderCode, code string, l domain.Label) error {
	if l.Code == "" {
		return &domain.ValidationError{Field: "label", Err: fmt.Errorf("%w: is required", ErrInvalidInput)}
	}
	return s.mutate(ctx, orderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, err := elementByCode(o, code)
		if err != nil {
			return err
		}
		return o.AddLabel(e.Node, l)
	})
}

func (s *orderService) AddMaterial(ctx context.Context, in AddMaterialInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	return s.mutate(ctx, in.OrderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, err := elementByCode(o, in.ElementCode)
		if err != nil {
			return err
		}
		o.AddMaterial(e.Node, &domain.MaterialAssignment{
			ID:           uuid.New().String(),
			MaterialCode: in.MaterialCode,
			Units:        in.Units,
			UnitPrice:    in.UnitPrice,
		})
		return nil
	})
}

func (s *orderService) AddQualityForm(ctx context.Context, orderCode, code, formName string) error {
	if formName == "" {
		return &domain.ValidationError{Field: "quality form", Err: fmt.Errorf("%w: is required", ErrInvalidInput)}
	}
	return s.mutate(ctx, orderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, err := elementByCode(o, code)
		if err != nil {
			return err
		}
		_, err = o.AddQualityForm(e.Node, formName)
		return err
	})
}

func (s *orderService) AddCriterionRequirement(ctx context.Context, orderCode, code, criterion string) error {
	if criterion == "" {
		return &domain.ValidationError{Field: "criterion", Err: fmt.Errorf("%w: is required", ErrInvalidInput)}
	}
	return s.mutate(ctx, orderCode, func(_ context.Context, _ txRepos, o *domain.Order) error {
		e, err := elementByCode(o, code)
		if err != nil {
			return err
		}
		newID := func() string { return uuid.New().String() }
		return o.AddCriterionRequirement(e.Node, &domain.CriterionRequirement{ID: newID(), Criterion: criterion}, newID)
	})
}

// mutate loads the order, applies fn and saves the tree in one transaction.
func (s *orderService) mutate(ctx context.Context, orderCode string, fn func(ctx context.Context, repos txRepos, o *domain.Order) error) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		o, err := repos.orders.GetByCode(ctx, orderCode)
		if err != nil {
			return fmt.Errorf("loading order %q: %w", orderCode, err)
		}
		if err := fn(ctx, repos, o); err != nil {
			return err
		}
		o.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		if err := repos.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		return nil
	})
}
