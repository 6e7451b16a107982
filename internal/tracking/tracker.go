package tracking

import (
	"fmt"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

// Particle is one macro-particle in longitudinal phase space.
type Particle struct {
	Phi    float64
	DeltaE float64
}

// Voltage is the RF waveform seen by the tracker.
type Voltage interface {
	Voltage(phi float64) float64
}

// Tracker applies the one-turn map for a fixed RF setting.
type Tracker struct {
	rf     Voltage
	gain   float64
	k      float64
	charge float64
}

// New builds a tracker for an arbitrary voltage function.
func New(v Voltage, gain, k, charge float64) (*Tracker, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil voltage", rf.ErrConfiguration)
	}
	if k == 0 {
		return nil, rf.ErrTransitionSingularity
	}
	return &Tracker{rf: v, gain: gain, k: k, charge: charge}, nil
}

// FromModel builds a tracker from a bucket model.
func FromModel(m *bucket.Model) (*Tracker, error) {
	k, err := m.MotionConstant()
	if err != nil {
		return nil, err
	}
	cfg := m.Config()
	return New(cfg, cfg.EnergyGain, k, m.Machine().Charge)
}

func (t *Tracker) K() float64      { return t.k }
func (t *Tracker) Charge() float64 { return t.charge }

// Advance maps p through one turn.
func (t *Tracker) Advance(p Particle) Particle {
	de := p.DeltaE + t.charge*(t.rf.Voltage(p.Phi)-t.gain)
	return Particle{Phi: p.Phi + t.k*de, DeltaE: de}
}

// AdvanceAll maps the ensemble (phiIn, dEIn) through one turn into
// (phiOut, dEOut). Output slices may alias the inputs.
func (t *Tracker) AdvanceAll(phiIn, dEIn, phiOut, dEOut []float64) error {
	n := len(phiIn)
	if len(dEIn) != n || len(phiOut) != n || len(dEOut) != n {
		return fmt.Errorf("%w: ensemble slices have lengths %d, %d, %d, %d",
			rf.ErrConfiguration, len(phiIn), len(dEIn), len(phiOut), len(dEOut))
	}
	ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := t.Advance(Particle{Phi: phiIn[i], DeltaE: dEIn[i]})
			phiOut[i] = p.Phi
			dEOut[i] = p.DeltaE
		}
	})
	return nil
}

// Track advances p by n turns and returns every visited point, p included.
func (t *Tracker) Track(p Particle, n int) []Particle {
	out := make([]Particle, 0, n+1)
	out = append(out, p)
	for i := 0; i < n; i++ {
		p = t.Advance(p)
		out = append(out, p)
	}
	return out
}
