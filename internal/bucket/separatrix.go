package bucket

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/longsim/internal/rf"
)

// Separatrix is one closed boundary curve in (phi, deltaE). The first
// Upper points run along the upper branch with increasing phase; the curve
// then returns along the lower branch and repeats its first point.
type Separatrix struct {
	Well   int
	Level  float64
	Center float64
	PhiMin float64
	PhiMax float64
	Phi    []float64
	DeltaE []float64
	Upper  int
}

// Empty reports whether the level encloses no phase space.
func (s Separatrix) Empty() bool {
	return s.Upper == 0
}

// Height is the largest deltaE on the curve.
func (s Separatrix) Height() float64 {
	if s.Empty() {
		return 0
	}
	return floats.Max(s.DeltaE[:s.Upper])
}

// Area is the enclosed phase-space area, twice the integral of the upper branch.
func (s Separatrix) Area() float64 {
	if s.Upper < 2 {
		return 0
	}
	return 2 * integrate.Trapezoidal(s.Phi[:s.Upper], s.DeltaE[:s.Upper])
}

// Contains reports whether (phi, deltaE) lies inside the curve. phi is
// reduced by whole turns onto the curve's phase support first.
func (s Separatrix) Contains(phi, deltaE float64) bool {
	if s.Upper < 2 {
		return false
	}
	phi = wrap(phi, s.PhiMin, window)
	if phi > s.PhiMax {
		return false
	}
	xs := s.Phi[:s.Upper]
	ys := s.DeltaE[:s.Upper]
	i := sort.SearchFloat64s(xs, phi)
	var bound float64
	switch {
	case i == 0:
		bound = ys[0]
	case i >= len(xs):
		bound = ys[len(ys)-1]
	default:
		x0, x1 := xs[i-1], xs[i]
		t := 0.0
		if x1 > x0 {
			t = (phi - x0) / (x1 - x0)
		}
		bound = ys[i-1] + t*(ys[i]-ys[i-1])
	}
	return math.Abs(deltaE) <= bound
}

// Separatrices extracts one boundary curve per stable well.
func (m *Model) Separatrices() ([]Separatrix, error) {
	if m.kErr != nil {
		return nil, m.kErr
	}
	buckets, err := m.Buckets()
	if err != nil {
		return nil, err
	}

	out := make([]Separatrix, 0, len(buckets))
	for _, b := range buckets {
		s, err := m.Contour(b, b.Level())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Contour traces the curve H = level inside bucket b. Levels below the well
// bottom give an empty curve.
func (m *Model) Contour(b Bucket, level float64) (Separatrix, error) {
	s := Separatrix{Well: b.Well, Level: level, Center: b.Center}
	k, err := m.MotionConstant()
	if err != nil {
		return s, err
	}

	grid := rf.Grid(b.Left, b.Right, m.opts.NPhi)
	grid[len(grid)-1] = b.Right
	rad := make([]float64, len(grid))
	eps := zeroTolerance * math.Max(math.Abs(level), m.cfg.Scale())
	for i, phi := range grid {
		r := level - m.wellPotential(phi)
		if r < 0 && r > -eps {
			r = 0
		}
		rad[i] = r
	}

	// the allowed region is the run of non-negative radicand around the centre
	c := sort.SearchFloat64s(grid, b.Center)
	if c >= len(grid) {
		c = len(grid) - 1
	}
	if c > 0 && math.Abs(grid[c-1]-b.Center) < math.Abs(grid[c]-b.Center) {
		c--
	}
	if rad[c] < 0 {
		logrus.Warnf("well %d: level %.6g lies below the well bottom, curve is empty", b.Well, level)
		return s, nil
	}
	lo, hi := c, c
	for lo > 0 && rad[lo-1] >= 0 {
		lo--
	}
	for hi < len(grid)-1 && rad[hi+1] >= 0 {
		hi++
	}

	var phis, des []float64
	g := func(phi float64) float64 { return level - m.wellPotential(phi) }
	if lo > 0 {
		t, err := bisect(g, grid[lo-1], grid[lo], m.opts.MaxIter, m.opts.Tol, "separatrix turning point")
		if err != nil {
			return s, err
		}
		phis = append(phis, t)
		des = append(des, 0)
	}
	for i := lo; i <= hi; i++ {
		phis = append(phis, grid[i])
		des = append(des, math.Sqrt(2*rad[i]/k))
	}
	if hi < len(grid)-1 {
		t, err := bisect(g, grid[hi], grid[hi+1], m.opts.MaxIter, m.opts.Tol, "separatrix turning point")
		if err != nil {
			return s, err
		}
		phis = append(phis, t)
		des = append(des, 0)
	}

	upper := len(phis)
	for i := upper - 1; i >= 0; i-- {
		if des[i] == 0 && (i == 0 || i == upper-1) {
			continue
		}
		phis = append(phis, phis[i])
		des = append(des, -des[i])
	}
	phis = append(phis, phis[0])
	des = append(des, des[0])

	s.Phi = phis
	s.DeltaE = des
	s.Upper = upper
	s.PhiMin = phis[0]
	s.PhiMax = phis[upper-1]
	return s, nil
}

// DeltaGrid spans ±span in deltaE with NDelta points, for HamiltonianField.
func (m *Model) DeltaGrid(span float64) []float64 {
	return rf.Grid(-span, span, m.opts.NDelta)
}
