package analysis

import (
	"math"

	"github.com/san-kum/longsim/internal/tracking"
)

// LyapunovExponent estimates the largest Lyapunov exponent per turn of the
// orbit starting at p. A companion particle offset by d0 in phase is tracked
// alongside and pulled back to distance d0 after every turn; the exponent
// is the mean log stretch. Orbits inside a bucket give values near zero,
// orbits near an unstable fixed point give ln of its eigenvalue.
func LyapunovExponent(tr *tracking.Tracker, p tracking.Particle, turns int, d0 float64) float64 {
	if turns <= 0 || d0 <= 0 {
		return 0
	}

	q := tracking.Particle{Phi: p.Phi + d0, DeltaE: p.DeltaE}
	sumLog := 0.0
	for i := 0; i < turns; i++ {
		p = tr.Advance(p)
		q = tr.Advance(q)

		dphi, dde := q.Phi-p.Phi, q.DeltaE-p.DeltaE
		sep := math.Hypot(dphi, dde)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return math.NaN()
		}
		sumLog += math.Log(sep / d0)

		// Renormalize so the offset stays in the linear regime.
		scale := d0 / sep
		q = tracking.Particle{Phi: p.Phi + dphi*scale, DeltaE: p.DeltaE + dde*scale}
	}
	return sumLog / float64(turns)
}
