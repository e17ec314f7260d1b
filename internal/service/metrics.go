package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/alexanderramin/ordersync/internal/scheduling"
)

// syncKinds are the command kinds counted from use-case fields.
var syncKinds = []scheduling.SyncKind{
	scheduling.MustAdd,
	scheduling.MustAddGroup,
	scheduling.ModifyGroup,
	scheduling.ReplaceHoursGroup,
	scheduling.MustRemove,
}

// syncKindField is the use-case field holding the number of commands of kind.
func syncKindField(kind scheduling.SyncKind) string {
	return strings.ToLower(string(kind))
}

// Metrics exports use-case and synchronization counters. A nil *Metrics
// records nothing.
type Metrics struct {
	useCases *prometheus.CounterVec
	duration *prometheus.HistogramVec
	syncs    *prometheus.CounterVec
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: use_case, outcome (success, error)
		useCases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersync",
			Subsystem: "service",
			Name:      "use_cases_total",
			Help:      "Total service use cases run, by outcome",
		}, []string{"use_case", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordersync",
			Subsystem: "service",
			Name:      "use_case_duration_seconds",
			Help:      "Service use case latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"use_case"}),

		// Labels: kind (MUST_ADD, MUST_REMOVE, ...)
		syncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersync",
			Subsystem: "scheduling",
			Name:      "synchronizations_total",
			Help:      "Total synchronization commands applied to the task store",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	if m == nil {
		return
	}
	outcome := "success"
	if !event.Success {
		outcome = "error"
	}
	m.useCases.WithLabelValues(event.Name, outcome).Inc()
	m.duration.WithLabelValues(event.Name).Observe(event.Duration.Seconds())

	if event.Name != useCaseSynchronize || !event.Success {
		return
	}
	for _, kind := range syncKinds {
		if n, ok := event.Fields[syncKindField(kind)].(int); ok && n > 0 {
			m.syncs.WithLabelValues(string(kind)).Add(float64(n))
		}
	}
}

// WriteMetrics encodes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
