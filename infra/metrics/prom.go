package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/opsplan/core/metrics"
)

// PromSink exposes schedule mutation metrics to Prometheus.
type PromSink struct {
	mutations  *prometheus.CounterVec
	validation prometheus.Histogram
	conflicts  *prometheus.CounterVec
	instances  prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_mutations_total",
		Help: "Schedule mutations by operation, outcome and rejection reason",
	}, []string{"op", "outcome", "reason"})
	validation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_validation_seconds",
		Help:    "Time spent validating and committing one mutation",
		Buckets: prometheus.DefBuckets,
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_total",
		Help: "Conflicts found by validation passes, by kind",
	}, []string{"kind"})
	instances := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_expanded_instances",
		Help: "Virtual instances produced by the last recurrence expansion",
	})

	var err error
	if mutations, err = register(reg, mutations); err != nil {
		return nil, err
	}
	if validation, err = register(reg, validation); err != nil {
		return nil, err
	}
	if conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	if instances, err = register(reg, instances); err != nil {
		return nil, err
	}
	return &PromSink{mutations: mutations, validation: validation, conflicts: conflicts, instances: instances}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordMutation counts the mutation and observes its duration.
func (s *PromSink) RecordMutation(ev coremetrics.MutationEvent) error {
	s.mutations.WithLabelValues(ev.Op, ev.Outcome, ev.Reason).Inc()
	s.validation.Observe(ev.Duration.Seconds())
	return nil
}

// RecordConflicts adds the conflict counts per kind.
func (s *PromSink) RecordConflicts(evs []coremetrics.ConflictEvent) error {
	for _, ev := range evs {
		s.conflicts.WithLabelValues(ev.Kind).Add(float64(ev.Count))
	}
	return nil
}

// RecordExpansion sets the instance gauge.
func (s *PromSink) RecordExpansion(ev coremetrics.ExpansionEvent) error {
	s.instances.Set(float64(ev.Instances))
	return nil
}
