package rf

import (
	"fmt"
	"math"
)

// Machine holds the physical constants of the ring seen by the longitudinal
// map. They are opaque scalars: only k and the kick sign are derived from them.
type Machine struct {
	Beta   float64 `yaml:"beta" json:"beta"`
	Energy float64 `yaml:"energy" json:"energy"`
	Eta    float64 `yaml:"eta" json:"eta"`
	Charge float64 `yaml:"charge" json:"charge"`
}

// BelowTransition reports whether the slip factor is negative.
func (m Machine) BelowTransition() bool {
	return m.Eta < 0
}

// MotionConstant returns k = |h1 * eta / beta^2| for fundamental harmonic h1.
func (m Machine) MotionConstant(h1 int) (float64, error) {
	if m.Eta == 0 {
		return 0, ErrTransitionSingularity
	}
	if m.Beta == 0 || !isFinite(m.Beta) || !isFinite(m.Eta) {
		return 0, configErrorf("beta %g and eta %g must be finite with beta non-zero", m.Beta, m.Eta)
	}
	if h1 <= 0 {
		return 0, configErrorf("fundamental harmonic must be positive, got %d", h1)
	}
	k := math.Abs(float64(h1) * m.Eta / (m.Beta * m.Beta))
	if k == 0 {
		return 0, ErrTransitionSingularity
	}
	return k, nil
}

func (m Machine) String() string {
	return fmt.Sprintf("beta=%g E=%g eta=%g q=%g", m.Beta, m.Energy, m.Eta, m.Charge)
}
