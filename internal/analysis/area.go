package analysis

import (
	"math"
	"sort"
)

// EnclosedArea estimates the phase-space area of a closed orbit sampled in
// arbitrary order: points are sorted by angle around their centroid and
// closed with the shoelace formula. The orbit must be star-shaped around
// its centroid, which holds for orbits inside a single well.
func EnclosedArea(phi, dE []float64) float64 {
	n := len(phi)
	if n < 3 || len(dE) != n {
		return 0
	}

	var cx, cy float64
	for i := range phi {
		cx += phi[i]
		cy += dE[i]
	}
	cx /= float64(n)
	cy /= float64(n)

	angle := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
		angle[i] = math.Atan2(dE[i]-cy, phi[i]-cx)
	}
	sort.Slice(idx, func(a, b int) bool { return angle[idx[a]] < angle[idx[b]] })

	area := 0.0
	for i, j := range idx {
		k := idx[(i+1)%n]
		area += (phi[j]-cx)*(dE[k]-cy) - (phi[k]-cx)*(dE[j]-cy)
	}
	return math.Abs(area) / 2
}
