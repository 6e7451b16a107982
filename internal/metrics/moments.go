package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/longsim/internal/beam"
)

// RMS is the standard deviation of one coordinate over the ensemble at the
// last observed turn: bunch length for phase, energy spread for deltaE.
type RMS struct {
	name   string
	energy bool
	value  float64
}

func NewRMSPhase() *RMS  { return &RMS{name: "rms_phase"} }
func NewRMSEnergy() *RMS { return &RMS{name: "rms_delta_e", energy: true} }

func (r *RMS) Name() string { return r.name }

func (r *RMS) Observe(f beam.Frame) {
	x := f.Phi
	if r.energy {
		x = f.DeltaE
	}
	r.value = Spread(x)
}

func (r *RMS) Value() float64 { return r.value }
func (r *RMS) Reset()         { r.value = 0 }

// Spread is the population standard deviation of x, zero for fewer than
// two samples.
func Spread(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(x, nil)
	return std
}
