package bucket

import (
	"fmt"
	"math"

	"github.com/san-kum/longsim/internal/rf"
)

// Potential returns -(1/2π) ∫_{phi_s}^{phi} (V - dE_s), integrated with the
// trapezoidal rule on an NPhi-point grid per 2π.
func (m *Model) Potential(phi float64) float64 {
	return -m.tbl.at(phi) / (2 * math.Pi)
}

// PotentialGrid evaluates the potential along a caller grid with the
// cumulative trapezoidal rule. The grid must be strictly monotone.
func (m *Model) PotentialGrid(grid []float64) ([]float64, error) {
	if err := checkMonotone(grid); err != nil {
		return nil, err
	}
	out := make([]float64, len(grid))
	if len(grid) == 0 {
		return out, nil
	}

	acc := m.tbl.at(grid[0])
	prev := m.force(grid[0])
	out[0] = -acc / (2 * math.Pi)
	for i := 1; i < len(grid); i++ {
		cur := m.force(grid[i])
		acc += 0.5 * (prev + cur) * (grid[i] - grid[i-1])
		out[i] = -acc / (2 * math.Pi)
		prev = cur
	}
	return out, nil
}

// VoltageGrid samples the voltage along a caller grid.
func (m *Model) VoltageGrid(grid []float64) []float64 {
	return m.cfg.Sample(grid)
}

// wellPotential is the potential term of the Hamiltonian, 2π·q·Potential.
func (m *Model) wellPotential(phi float64) float64 {
	return -m.machine.Charge * m.tbl.at(phi)
}

func checkMonotone(grid []float64) error {
	if len(grid) < 2 {
		return nil
	}
	dir := grid[1] - grid[0]
	for i := 1; i < len(grid); i++ {
		d := grid[i] - grid[i-1]
		if d == 0 || (d > 0) != (dir > 0) || math.IsNaN(d) {
			return fmt.Errorf("%w: phase grid is not strictly monotone at index %d", rf.ErrConfiguration, i)
		}
	}
	return nil
}
