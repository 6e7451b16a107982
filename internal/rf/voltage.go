package rf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Voltage evaluates V * Σ r_i sin(h_i phi + Phis_i).
func (c Config) Voltage(phi float64) float64 {
	sum := 0.0
	for i, h := range c.Harmonics {
		sum += c.ratio(i) * math.Sin(float64(h)*phi+c.Phases[i])
	}
	return c.Amplitude * sum
}

// Slope is the analytic derivative dV/dphi.
func (c Config) Slope(phi float64) float64 {
	sum := 0.0
	for i, h := range c.Harmonics {
		hf := float64(h)
		sum += c.ratio(i) * hf * math.Cos(hf*phi+c.Phases[i])
	}
	return c.Amplitude * sum
}

// Sample evaluates the voltage on every point of grid.
func (c Config) Sample(grid []float64) []float64 {
	out := make([]float64, len(grid))
	for i, phi := range grid {
		out[i] = c.Voltage(phi)
	}
	return out
}

// Swing returns the peak-to-peak extent of the voltage over one period,
// sampled on n points.
func (c Config) Swing(n int) (lo, hi float64) {
	grid := Grid(-math.Pi, math.Pi, n)
	v := c.Sample(grid)
	return floats.Min(v), floats.Max(v)
}

// Grid returns n evenly spaced phases from lo to hi inclusive.
func Grid(lo, hi float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), lo, hi)
}
