package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/testutil"
)

const whatIf domain.OrderVersion = "what-if"

type testEnv struct {
	db         *sql.DB
	uow        db.UnitOfWork
	orders     OrderService
	scheduling SchedulingService
	advances   AdvanceService
	imports    ImportService
}

func newTestEnv(t *testing.T, observers ...UseCaseObserver) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	return &testEnv{
		db:         database,
		uow:        uow,
		orders:     NewOrderService(uow, observers...),
		scheduling: NewSchedulingService(uow, observers...),
		advances:   NewAdvanceService(uow, observers...),
		imports:    NewImportService(uow, observers...),
	}
}

// seedSample creates order SHIP with SHIP -> {G -> {A(10), B(30)}, C(20)}.
func (env *testEnv) seedSample(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := env.orders.Create(ctx, CreateOrderInput{Code: "SHIP", Name: "Ship"})
	require.NoError(t, err)
	for _, in := range []AddElementInput{
		{Code: "G", Name: "Group", Kind: "group"},
		{ParentCode: "G", Code: "A", Name: "Leaf A", Kind: "leaf", Hours: 10},
		{ParentCode: "G", Code: "B", Name: "Leaf B", Kind: "leaf", Hours: 30},
		{Code: "C", Name: "Leaf C", Kind: "leaf", Hours: 20},
	} {
		in.OrderCode = "SHIP"
		_, err := env.orders.AddElement(ctx, in)
		require.NoError(t, err)
	}
}

// scheduleLeaves schedules A, B and C in version.
func (env *testEnv) scheduleLeaves(t *testing.T, version domain.OrderVersion) {
	t.Helper()
	for _, code := range []string{"A", "B", "C"} {
		require.NoError(t, env.scheduling.Schedule(context.Background(), "SHIP", code, version))
	}
}

func tasksByCode(t *testing.T, env *testEnv, version domain.OrderVersion) map[string]*domain.Task {
	t.Helper()
	ctx := context.Background()
	o, err := env.orders.GetByCode(ctx, "SHIP")
	require.NoError(t, err)
	tasks, err := env.scheduling.Tasks(ctx, "SHIP", version)
	require.NoError(t, err)
	result := make(map[string]*domain.Task, len(tasks))
	for _, task := range tasks {
		e, ok := o.ElementByID(task.ElementID)
		require.True(t, ok, "task of unknown element %s", task.ElementID)
		result[e.Code] = task
	}
	return result
}

func statesByCode(t *testing.T, env *testEnv, version domain.OrderVersion) map[string]ElementState {
	t.Helper()
	states, err := env.scheduling.States(context.Background(), "SHIP", version)
	require.NoError(t, err)
	result := make(map[string]ElementState, len(states))
	for _, st := range states {
		result[st.Element.Code] = st
	}
	return result
}
