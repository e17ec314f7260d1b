package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
	"github.com/alexanderramin/ordersync/internal/scheduling"
	"github.com/alexanderramin/ordersync/internal/testutil"
)

func TestSchedulingService_PlanDoesNotApply(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()

	plan, err := env.scheduling.Plan(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.False(t, plan.Applied)
	assert.Equal(t, 3, plan.Counts[scheduling.MustAdd])
	assert.Equal(t, 2, plan.Counts[scheduling.MustAddGroup])

	assert.Empty(t, tasksByCode(t, env, domain.BaseVersion))
	again, err := env.scheduling.Plan(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.Equal(t, plan.Counts, again.Counts)
}

func TestSchedulingService_SynchronizeAppliesOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()

	result, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.Len(t, result.Syncs, 1)
	assert.Equal(t, scheduling.MustAddGroup, result.Syncs[0].Kind)

	tasks := tasksByCode(t, env, domain.BaseVersion)
	require.Len(t, tasks, 5)
	assert.Equal(t, 60, tasks["SHIP"].WorkHours)
	assert.Equal(t, 40, tasks["G"].WorkHours)
	assert.True(t, tasks["G"].Group)
	assert.Equal(t, tasks["G"].ID, tasks["A"].ParentID)
	assert.Equal(t, tasks["SHIP"].ID, tasks["C"].ParentID)

	second, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.Empty(t, second.Syncs)
	assert.Len(t, tasksByCode(t, env, domain.BaseVersion), 5)
}

func TestSchedulingService_States(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	require.NoError(t, env.scheduling.Schedule(context.Background(), "SHIP", "A", domain.BaseVersion))

	states := statesByCode(t, env, domain.BaseVersion)
	assert.Equal(t, scheduling.SchedulingPoint, states["A"].State)
	assert.Equal(t, scheduling.SomewhatScheduled, states["G"].State)
	assert.Equal(t, scheduling.SomewhatScheduled, states["SHIP"].State)
	assert.Equal(t, scheduling.NotScheduled, states["B"].State)
	assert.Equal(t, scheduling.NotScheduled, states["C"].State)
	assert.Equal(t, 2, states["A"].Depth)
	assert.Equal(t, 40, states["G"].Hours)
	assert.Empty(t, states["A"].TaskSourceID)

	_, err := env.scheduling.Synchronize(context.Background(), "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	states = statesByCode(t, env, domain.BaseVersion)
	assert.NotEmpty(t, states["A"].TaskSourceID)
	assert.True(t, states["G"].TaskGroup)
}

func TestSchedulingService_UnscheduleRemovesTask(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()
	_, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)

	require.NoError(t, env.scheduling.Unschedule(ctx, "SHIP", "C", domain.BaseVersion))
	result, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts[scheduling.MustRemove])

	tasks := tasksByCode(t, env, domain.BaseVersion)
	assert.NotContains(t, tasks, "C")
	assert.Equal(t, 40, tasks["SHIP"].WorkHours)
}

func TestSchedulingService_ScheduleErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	ctx := context.Background()

	require.NoError(t, env.scheduling.Schedule(ctx, "SHIP", "G", domain.BaseVersion))
	err := env.scheduling.Schedule(ctx, "SHIP", "A", domain.BaseVersion)
	assert.ErrorIs(t, err, domain.ErrAncestorScheduled)

	err = env.scheduling.Schedule(ctx, "SHIP", "A", "nowhere")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = env.scheduling.Schedule(ctx, "SHIP", "NOPE", domain.BaseVersion)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = env.scheduling.Synchronize(ctx, "NOPE", domain.BaseVersion)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSchedulingService_ForkIsolatesVersions(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()
	_, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)

	sc, err := env.scheduling.ForkVersion(ctx, "SHIP", domain.BaseVersion, whatIf)
	require.NoError(t, err)
	assert.Equal(t, whatIf, sc.Version)
	assert.False(t, sc.IsBase())

	_, err = env.scheduling.ForkVersion(ctx, "SHIP", domain.BaseVersion, whatIf)
	assert.ErrorIs(t, err, ErrVersionExists)
	_, err = env.scheduling.ForkVersion(ctx, "SHIP", "nowhere", "other")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	versions, err := env.scheduling.ListVersions(ctx, "SHIP")
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	forked, err := env.scheduling.Plan(ctx, "SHIP", whatIf)
	require.NoError(t, err)
	assert.Empty(t, forked.Syncs, "a fork starts in sync")

	require.NoError(t, env.orders.AddHoursGroup(ctx, AddHoursGroupInput{OrderCode: "SHIP", ElementCode: "A", Code: "EXTRA", Hours: 5}))
	result, err := env.scheduling.Synchronize(ctx, "SHIP", whatIf)
	require.NoError(t, err)
	// A changed; B and C are listed again as unchanged group members.
	assert.Equal(t, 3, result.Counts[scheduling.ReplaceHoursGroup])
	assert.Equal(t, 2, result.Counts[scheduling.ModifyGroup])

	whatIfTasks := tasksByCode(t, env, whatIf)
	baseTasks := tasksByCode(t, env, domain.BaseVersion)
	assert.Equal(t, 15, whatIfTasks["A"].WorkHours)
	assert.Equal(t, 65, whatIfTasks["SHIP"].WorkHours)
	assert.Equal(t, 10, baseTasks["A"].WorkHours)
	assert.Equal(t, 60, baseTasks["SHIP"].WorkHours)
	assert.NotEqual(t, baseTasks["A"].TaskSourceID, whatIfTasks["A"].TaskSourceID,
		"a shared task source is cloned before its hours diverge")

	states := statesByCode(t, env, domain.BaseVersion)
	assert.Equal(t, baseTasks["A"].TaskSourceID, states["A"].TaskSourceID)
}

func TestSchedulingService_SynchronizeRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()

	// Exec #1..#7 apply the task commands; #8 is the first scheduling
	// data write.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     env.db,
		FailOn: 8,
		Err:    fmt.Errorf("injected snapshot write failure"),
	}
	failing := NewSchedulingService(failUoW)
	_, err := failing.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected snapshot write failure")

	assert.Empty(t, tasksByCode(t, env, domain.BaseVersion), "tasks rolled back")
	plan, err := env.scheduling.Plan(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Counts[scheduling.MustAdd], "snapshots rolled back")
}
