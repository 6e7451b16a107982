package metrics

import (
	"math"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
)

// meanHamiltonian averages H over the ensemble. ok is false at transition.
func meanHamiltonian(f beam.Frame) (float64, bool) {
	if f.Model == nil || len(f.Phi) == 0 {
		return 0, false
	}
	sum := 0.0
	for i := range f.Phi {
		h, err := f.Model.Hamiltonian(f.Phi[i], f.DeltaE[i])
		if err != nil {
			return 0, false
		}
		sum += h
	}
	return sum / float64(len(f.Phi)), true
}

// MeanHamiltonian is the running average over turns of the ensemble-mean H.
type MeanHamiltonian struct {
	name    string
	total   float64
	samples int
}

func NewMeanHamiltonian() *MeanHamiltonian {
	return &MeanHamiltonian{name: "mean_hamiltonian"}
}

func (e *MeanHamiltonian) Name() string { return e.name }

func (e *MeanHamiltonian) Observe(f beam.Frame) {
	h, ok := meanHamiltonian(f)
	if !ok {
		return
	}
	e.total += h
	e.samples++
}

func (e *MeanHamiltonian) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *MeanHamiltonian) Reset() {
	e.total = 0
	e.samples = 0
}

// HamiltonianDrift tracks the largest relative change of the ensemble-mean H
// from its value at the first observed turn. An RF change starts a new
// baseline, since H is only conserved under a fixed RF setting.
type HamiltonianDrift struct {
	name     string
	model    *bucket.Model
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewHamiltonianDrift() *HamiltonianDrift {
	return &HamiltonianDrift{name: "hamiltonian_drift"}
}

func (e *HamiltonianDrift) Name() string { return e.name }

func (e *HamiltonianDrift) Observe(f beam.Frame) {
	h, ok := meanHamiltonian(f)
	if !ok {
		return
	}
	if e.samples == 0 || f.Model != e.model {
		e.model = f.Model
		e.initial = h
	}
	e.current = h
	e.samples++

	drift := math.Abs(h - e.initial)
	if e.initial != 0 {
		drift /= math.Abs(e.initial)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *HamiltonianDrift) Value() float64 {
	return e.maxDrift
}

func (e *HamiltonianDrift) Reset() {
	e.model = nil
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
