package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

const (
	useCaseCreateOrder      = "create-order"
	useCaseAddElement       = "add-element"
	useCaseRemoveElement    = "remove-element"
	useCaseSchedule         = "schedule"
	useCaseUnschedule       = "unschedule"
	useCaseSynchronize      = "synchronize"
	useCaseForkVersion      = "fork-version"
	useCaseAddAssignment    = "add-advance-assignment"
	useCaseRemoveAssignment = "remove-advance-assignment"
	useCaseAddMeasurement   = "add-advance-measurement"
	useCaseImport           = "import-order"
)

// txRepos are the repositories bound to one transaction.
type txRepos struct {
	orders     repository.OrderRepo
	scenarios  repository.ScenarioRepo
	scheduling repository.SchedulingRepo
	tasks      repository.TaskRepo
	types      repository.AdvanceTypeRepo
}

func reposFor(tx db.DBTX) txRepos {
	return txRepos{
		orders:     repository.NewSQLiteOrderRepo(tx),
		scenarios:  repository.NewSQLiteScenarioRepo(tx),
		scheduling: repository.NewSQLiteSchedulingRepo(tx),
		tasks:      repository.NewSQLiteTaskRepo(tx),
		types:      repository.NewSQLiteAdvanceTypeRepo(tx),
	}
}

// orderSession is an order loaded inside a transaction together with the
// scheduling engine over its snapshots.
type orderSession struct {
	repos  txRepos
	order  *domain.Order
	engine *scheduling.Engine
}

func openSession(ctx context.Context, repos txRepos, orderCode string) (*orderSession, error) {
	o, err := repos.orders.GetByCode(ctx, orderCode)
	if err != nil {
		return nil, fmt.Errorf("loading order %q: %w", orderCode, err)
	}
	store, err := repos.scheduling.Load(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("loading scheduling data of %q: %w", orderCode, err)
	}
	return &orderSession{
		repos:  repos,
		order:  o,
		engine: scheduling.NewEngine(o, store),
	}, nil
}

func (s *orderSession) element(code string) (*domain.OrderElement, error) {
	return elementByCode(s.order, code)
}

func elementByCode(o *domain.Order, code string) (*domain.OrderElement, error) {
	e, ok := o.ElementByCode(code)
	if !ok {
		return nil, fmt.Errorf("element %q of order %q: %w", code, o.Code, repository.ErrNotFound)
	}
	return e, nil
}

// useVersion selects version for the whole tree. The version must belong
// to a scenario of the order.
func (s *orderSession) useVersion(ctx context.Context, version domain.OrderVersion) error {
	if _, err := s.repos.scenarios.GetByName(ctx, s.order.ID, string(version)); err != nil {
		return fmt.Errorf("version %q of order %q: %w", version, s.order.Code, err)
	}
	s.engine.UseSchedulingDataFor(s.order.Root(), version)
	return nil
}

// versions returns the versions of every scenario of the order.
func (s *orderSession) versions(ctx context.Context) ([]domain.OrderVersion, error) {
	scenarios, err := s.repos.scenarios.ListByOrder(ctx, s.order.ID)
	if err != nil {
		return nil, err
	}
	result := make([]domain.OrderVersion, 0, len(scenarios))
	for _, sc := range scenarios {
		result = append(result, sc.Version)
	}
	return result, nil
}

// commit writes the working data of the tree and stores the snapshots of
// version.
func (s *orderSession) commit(ctx context.Context, version domain.OrderVersion) error {
	root := s.order.Root()
	s.engine.WriteSchedulingDataChanges(root)
	s.engine.ResetStates()
	if err := s.repos.scheduling.Save(ctx, s.order, s.engine.Store(), version); err != nil {
		return fmt.Errorf("saving scheduling data: %w", err)
	}
	return nil
}

// checkCodeFree fails when an element of another order uses code.
func checkCodeFree(ctx context.Context, orders repository.OrderRepo, code, orderID string) error {
	inUse, err := orders.CodeInUse(ctx, code, orderID)
	if err != nil {
		return fmt.Errorf("checking code %q: %w", code, err)
	}
	if inUse {
		return &domain.ValidationError{Field: "code", Value: code, Err: domain.ErrDuplicateCode}
	}
	return nil
}

// versionOrBase defaults an empty version to the base scenario.
func versionOrBase(v domain.OrderVersion) domain.OrderVersion {
	if v == "" {
		return domain.BaseVersion
	}
	return v
}

// preOrder visits the order tree in pre-order with the depth of each node.
func preOrder(o *domain.Order, fn func(node domain.NodeID, depth int)) {
	var walk func(node domain.NodeID, depth int)
	walk = func(node domain.NodeID, depth int) {
		fn(node, depth)
		for _, c := range o.Children(node) {
			walk(c, depth+1)
		}
	}
	walk(o.Root(), 0)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
