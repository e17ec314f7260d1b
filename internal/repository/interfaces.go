package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// OrderSummary is a header view of an order, used for listings.
type OrderSummary struct {
	ID           string
	Code         string
	Name         string
	ElementCount int
	CreatedAt    time.Time
}

type OrderRepo interface {
	// Save upserts the order and its whole tree. Elements no longer in the
	// tree are deleted.
	Save(ctx context.Context, o *domain.Order) error
	// GetByID loads the fully initialized tree.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context) ([]OrderSummary, error)
	// CodeInUse reports whether an element of another order uses code.
	CodeInUse(ctx context.Context, code, exceptOrderID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type AdvanceTypeRepo interface {
	Create(ctx context.Context, t *domain.AdvanceType) error
	GetByID(ctx context.Context, id string) (*domain.AdvanceType, error)
	GetByUnitName(ctx context.Context, unitName string) (*domain.AdvanceType, error)
	List(ctx context.Context) ([]*domain.AdvanceType, error)
}

type ScenarioRepo interface {
	Create(ctx context.Context, s *domain.Scenario) error
	GetByName(ctx context.Context, orderID, name string) (*domain.Scenario, error)
	ListByOrder(ctx context.Context, orderID string) ([]*domain.Scenario, error)
}

type SchedulingRepo interface {
	// Load returns the snapshots of every version of the order. Task
	// sources shared between versions are loaded as one value.
	Load(ctx context.Context, orderID string) (*scheduling.Store, error)
	// Save writes the snapshots of the given versions (all when none is
	// given) and drops task sources no snapshot references anymore.
	Save(ctx context.Context, o *domain.Order, store *scheduling.Store, versions ...domain.OrderVersion) error
}

type TaskRepo interface {
	// Apply executes synchronization commands against the tasks of version.
	Apply(ctx context.Context, o *domain.Order, version domain.OrderVersion, syncs []scheduling.Synchronization) error
	ListByVersion(ctx context.Context, orderID string, version domain.OrderVersion) ([]*domain.Task, error)
	// Fork copies the tasks of from into to.
	Fork(ctx context.Context, orderID string, from, to domain.OrderVersion) error
}
