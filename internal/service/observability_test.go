package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	r.events = append(r.events, event)
}

func TestLogUseCaseObserver_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelInfo)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:    useCaseSynchronize,
		Success: true,
		Fields:  map[string]any{"order": "SHIP"},
	})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: useCaseSchedule,
		Err:  errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "msg=service_use_case")
	assert.Contains(t, out, "use_case=synchronize")
	assert.Contains(t, out, "order=SHIP")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestLogUseCaseObserver_NilWriterIsNoop(t *testing.T) {
	assert.Equal(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil, slog.LevelInfo))
}

func TestTeeUseCaseObservers(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}
	tee := TeeUseCaseObservers(first, nil, second)
	tee.ObserveUseCase(context.Background(), UseCaseEvent{Name: "x"})
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)

	assert.Same(t, first, TeeUseCaseObservers(nil, first))
	assert.Equal(t, NoopUseCaseObserver{}, TeeUseCaseObservers())
}

func TestServices_EmitUseCaseEvents(t *testing.T) {
	rec := &recordingObserver{}
	env := newTestEnv(t, rec)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	_, err := env.scheduling.Synchronize(context.Background(), "SHIP", domain.BaseVersion)
	require.NoError(t, err)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, useCaseSynchronize, last.Name)
	assert.True(t, last.Success)
	assert.Equal(t, 3, last.Fields["must_add"])
	assert.Equal(t, 2, last.Fields["must_add_group"])
	assert.Equal(t, useCaseCreateOrder, rec.events[0].Name)
}

func TestMetrics_CountsUseCasesAndSynchronizations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	env := newTestEnv(t, metrics)
	env.seedSample(t)
	env.scheduleLeaves(t, domain.BaseVersion)
	ctx := context.Background()

	_, err := env.scheduling.Synchronize(ctx, "SHIP", domain.BaseVersion)
	require.NoError(t, err)
	_, err = env.scheduling.Synchronize(ctx, "NOPE", domain.BaseVersion)
	require.Error(t, err)

	assert.Equal(t, 3.0, promtestutil.ToFloat64(metrics.syncs.WithLabelValues("MUST_ADD")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.syncs.WithLabelValues("MUST_ADD_GROUP")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.useCases.WithLabelValues(useCaseSynchronize, "success")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.useCases.WithLabelValues(useCaseSynchronize, "error")))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(metrics.useCases.WithLabelValues(useCaseSchedule, "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestWriteMetrics_TextFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:    useCaseSynchronize,
		Success: true,
		Fields:  map[string]any{syncKindField(scheduling.MustAdd): 2},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "# TYPE ordersync_service_use_cases_total counter")
	assert.Contains(t, out, `ordersync_service_use_cases_total{outcome="success",use_case="synchronize"} 1`)
	assert.Contains(t, out, `ordersync_scheduling_synchronizations_total{kind="MUST_ADD"} 2`)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.ObserveUseCase(context.Background(), UseCaseEvent{Name: useCaseSynchronize, Success: true})
	})
}
