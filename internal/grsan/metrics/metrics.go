// Package metrics exposes search progress as Prometheus counters.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grsan"

// Metrics holds the counters of one search. Each Metrics owns its registry,
// so concurrent searches do not share counters.
type Metrics struct {
	Registry *prometheus.Registry

	Replays    prometheus.Counter
	Labels     prometheus.Counter
	Targets    prometheus.Counter
	Epochs     prometheus.Counter
	Mismatches prometheus.Counter
	NonFinite  prometheus.Counter
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// New creates and registers the search counters.
func New() *Metrics {
	m := &Metrics{
		Registry:   prometheus.NewRegistry(),
		Replays:    counter("replays_total", "Target replays executed."),
		Labels:     counter("labels_total", "Labels allocated across all replays."),
		Targets:    counter("targets_total", "Optimization targets selected by filters."),
		Epochs:     counter("epochs_total", "Optimizer epochs executed."),
		Mismatches: counter("opcode_mismatches_total", "Targets abandoned after an opcode mismatch."),
		NonFinite:  counter("nonfinite_steps_total", "Optimizer steps skipped because the update was not finite."),
	}
	m.Registry.MustRegister(m.Replays, m.Labels, m.Targets, m.Epochs, m.Mismatches, m.NonFinite)
	return m
}

// Replay records one replay that allocated n labels.
func (m *Metrics) Replay(n int) {
	if m == nil {
		return
	}
	m.Replays.Inc()
	m.Labels.Add(float64(n))
}

// WriteTextfile writes the counters in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
