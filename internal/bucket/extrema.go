package bucket

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/longsim/internal/rf"
)

type ExtremumKind int

const (
	Minimum ExtremumKind = iota
	Maximum
)

func (k ExtremumKind) String() string {
	if k == Minimum {
		return "minimum"
	}
	return "maximum"
}

// Extremum is a stationary point of the Hamiltonian potential: a minimum is
// a stable fixed point, a maximum an unstable one.
type Extremum struct {
	Kind  ExtremumKind
	Phase float64
}

// Bucket pairs a stable fixed point with its two neighbouring unstable fixed
// points, unwrapped so that Left < Center < Right. Potentials are in
// Hamiltonian units.
type Bucket struct {
	Well                   int
	Center, Left, Right    float64
	CenterU, LeftU, RightU float64
}

// Level is the separatrix level: the lower of the two barriers.
func (b Bucket) Level() float64 {
	return math.Min(b.LeftU, b.RightU)
}

// Depth is the barrier height seen from the bottom of the well.
func (b Bucket) Depth() float64 {
	return b.Level() - b.CenterU
}

const window = 2 * math.Pi

// Extrema returns the stationary points of the potential over one 2π window
// starting at -π, sorted by phase. Each is bracketed by a sign change of the
// sampled derivative and refined by bisection.
func (m *Model) Extrema() ([]Extremum, error) {
	q := m.machine.Charge
	deriv := func(phi float64) float64 { return -q * m.force(phi) }
	lo := -math.Pi

	xs := findCrossings(deriv, lo, window, m.opts.NPhi, zeroTolerance*m.cfg.Scale()*math.Abs(q))

	var out []Extremum
	for _, c := range xs {
		if c.touch {
			continue
		}
		phi, err := bisect(deriv, c.lo, c.hi, m.opts.MaxIter, m.opts.Tol, "potential extremum")
		if err != nil {
			return nil, err
		}
		kind := Maximum
		if c.rising {
			kind = Minimum
		}
		out = append(out, Extremum{Kind: kind, Phase: wrap(phi, lo, window)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: potential has no extrema over [%.4f, %.4f], no bucket exists",
			rf.ErrConfiguration, lo, lo+window)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	return out, nil
}

// Buckets pairs every minimum with its circular neighbour maxima.
func (m *Model) Buckets() ([]Bucket, error) {
	ext, err := m.Extrema()
	if err != nil {
		return nil, err
	}

	n := len(ext)
	var out []Bucket
	for j, e := range ext {
		if e.Kind != Minimum {
			continue
		}
		left := ext[(j-1+n)%n]
		right := ext[(j+1)%n]
		if left.Kind != Maximum || right.Kind != Maximum {
			return nil, fmt.Errorf("%w: extrema do not alternate around phase %.6f", rf.ErrNonConvergence, e.Phase)
		}

		b := Bucket{Well: len(out), Center: e.Phase, Left: left.Phase, Right: right.Phase}
		if b.Left >= b.Center {
			b.Left -= window
		}
		if b.Right <= b.Center {
			b.Right += window
		}
		b.CenterU = m.wellPotential(b.Center)
		b.LeftU = m.wellPotential(b.Left)
		b.RightU = m.wellPotential(b.Right)
		out = append(out, b)
	}
	return out, nil
}
