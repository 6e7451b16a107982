package bucket

import (
	"fmt"
	"math"

	"github.com/san-kum/longsim/internal/rf"
)

// crossing is a sign change (or a touch) of a periodic function found on a
// sample grid. lo and hi bracket it in unwrapped phase; they are the
// nearest samples with a definite sign on either side.
type crossing struct {
	lo, hi float64
	rising bool
	touch  bool
}

// findCrossings samples f at n points of [lo, lo+period) and walks the
// samples circularly. Samples within zeroTol of zero carry no sign; a run of
// them between two opposite signs is a crossing, between equal signs a touch.
// Crossings come back in walk order with lo < hi, possibly past lo+period.
func findCrossings(f func(float64) float64, lo, period float64, n int, zeroTol float64) []crossing {
	step := period / float64(n)
	signs := make([]int, n)
	nonzero := 0
	for i := range signs {
		v := f(lo + float64(i)*step)
		switch {
		case v > zeroTol:
			signs[i] = 1
			nonzero++
		case v < -zeroTol:
			signs[i] = -1
			nonzero++
		}
	}
	if nonzero == 0 {
		return nil
	}

	start := 0
	for signs[start] == 0 {
		start++
	}

	var out []crossing
	prev := start
	for i := start + 1; i <= start+n; i++ {
		s := signs[i%n]
		if s == 0 {
			continue
		}
		c := crossing{lo: lo + float64(prev)*step, hi: lo + float64(i)*step}
		switch {
		case s != signs[prev%n]:
			c.rising = s > 0
			out = append(out, c)
		case i-prev > 1:
			c.touch = true
			out = append(out, c)
		}
		prev = i
	}
	return out
}

const epsilon = 0x1p-52

// bisect refines a bracketed zero of f on [lo, hi].
func bisect(f func(float64) float64, lo, hi float64, maxIter int, tol float64, op string) (float64, error) {
	a, b := lo, hi
	fa := f(a)
	if fa == 0 {
		return a, nil
	}
	fb := f(b)
	if fb == 0 {
		return b, nil
	}
	if (fa < 0) == (fb < 0) {
		return 0, &rf.RangeError{
			Op: op, Lo: lo, Hi: hi,
			Wrapped: fmt.Errorf("%w: bracket does not change sign", rf.ErrNonConvergence),
		}
	}

	// A zero tol still stops at a few ulps of the bracket scale.
	tol = max(tol, 2*epsilon*max(math.Abs(lo), math.Abs(hi)))
	for i := 0; i < maxIter; i++ {
		mid := a + 0.5*(b-a)
		if mid == a || mid == b {
			return mid, nil
		}
		fm := f(mid)
		if fm == 0 || b-a <= 2*tol {
			return mid, nil
		}
		if (fm < 0) == (fa < 0) {
			a, fa = mid, fm
		} else {
			b = mid
		}
	}
	return 0, &rf.RangeError{Op: op, Lo: lo, Hi: hi, Iterations: maxIter, Wrapped: rf.ErrNonConvergence}
}

// wrap maps phi into [lo, lo+period).
func wrap(phi, lo, period float64) float64 {
	w := phi - period*math.Floor((phi-lo)/period)
	if w >= lo+period {
		w -= period
	}
	return w
}
