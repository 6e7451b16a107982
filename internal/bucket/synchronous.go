package bucket

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/longsim/internal/rf"
)

const (
	zeroTolerance  = 1e-12
	touchTolerance = 1e-4
)

type root struct {
	phase  float64
	rising bool
}

// SynchronousPhase solves V(phi_s) = dE_s over one RF period centred on zero.
//
// Below transition the root where V - dE_s rises through zero is selected,
// above transition the falling one. The branch is read from the direction of
// the sign change, so odd-order zeros such as the flat bottom of a
// bunch-lengthening double-harmonic system are accepted; zeros that touch
// without changing sign are rejected. Among roots on the branch the one with
// the smallest |phi| wins, then the lowest phase.
func (m *Model) SynchronousPhase() (float64, error) {
	cfg := m.cfg
	period := cfg.Period()
	lo := -period / 2
	scale := cfg.Scale()
	f := m.force

	xs := findCrossings(f, lo, period, m.opts.NPhi, zeroTolerance*scale)

	var roots []root
	touched := false
	for _, c := range xs {
		if c.touch {
			touched = true
			continue
		}
		phi, err := bisect(f, c.lo, c.hi, m.opts.MaxIter, m.opts.Tol, "synchronous phase")
		if err != nil {
			return 0, err
		}
		roots = append(roots, root{phase: wrap(phi, lo, period), rising: c.rising})
	}

	if len(roots) == 0 {
		vlo, vhi := cfg.Swing(m.opts.NPhi)
		if touched || math.Abs(cfg.EnergyGain-vhi) <= touchTolerance*scale || math.Abs(cfg.EnergyGain-vlo) <= touchTolerance*scale {
			return 0, fmt.Errorf("%w: energy gain %g is reached only tangentially, synchronous phase is not a simple crossing",
				rf.ErrConfiguration, cfg.EnergyGain)
		}
		return 0, fmt.Errorf("%w: energy gain %g outside voltage swing [%g, %g]",
			rf.ErrConfiguration, cfg.EnergyGain, vlo, vhi)
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].phase < roots[j].phase })

	wantRising := m.machine.BelowTransition()
	best := -1
	for i, r := range roots {
		if r.rising != wantRising {
			continue
		}
		if best < 0 || math.Abs(r.phase) < math.Abs(roots[best].phase) {
			best = i
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no synchronous phase on the %s branch", rf.ErrConfiguration, branchName(wantRising))
	}

	logrus.Debugf("synchronous phase %.6f selected from %d roots (%s branch)", roots[best].phase, len(roots), branchName(wantRising))
	return roots[best].phase, nil
}

func branchName(rising bool) string {
	if rising {
		return "rising"
	}
	return "falling"
}
