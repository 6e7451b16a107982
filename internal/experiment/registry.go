package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/metrics"
)

// Registry maps metric names to constructors.
type Registry struct {
	metrics map[string]func() beam.Metric
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]func() beam.Metric)}

	r.metrics["mean_hamiltonian"] = func() beam.Metric { return metrics.NewMeanHamiltonian() }
	r.metrics["hamiltonian_drift"] = func() beam.Metric { return metrics.NewHamiltonianDrift() }
	r.metrics["capture"] = func() beam.Metric { return metrics.NewCapture() }
	r.metrics["rms_phase"] = func() beam.Metric { return metrics.NewRMSPhase() }
	r.metrics["rms_delta_e"] = func() beam.Metric { return metrics.NewRMSEnergy() }

	return r
}

func (r *Registry) GetMetric(name string) (beam.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
