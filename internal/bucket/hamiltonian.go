package bucket

// Hamiltonian returns 0.5*k*dE^2 + 2π·q·Potential(phi).
func (m *Model) Hamiltonian(phi, deltaE float64) (float64, error) {
	if m.kErr != nil {
		return 0, m.kErr
	}
	return 0.5*m.sync.K*deltaE*deltaE + m.wellPotential(phi), nil
}

// HamiltonianField evaluates H on the mesh phiGrid × deltaGrid. Rows follow
// deltaGrid, columns phiGrid.
func (m *Model) HamiltonianField(phiGrid, deltaGrid []float64) ([][]float64, error) {
	if m.kErr != nil {
		return nil, m.kErr
	}
	if err := checkMonotone(phiGrid); err != nil {
		return nil, err
	}

	u := make([]float64, len(phiGrid))
	for i, phi := range phiGrid {
		u[i] = m.wellPotential(phi)
	}

	field := make([][]float64, len(deltaGrid))
	for j, dE := range deltaGrid {
		row := make([]float64, len(phiGrid))
		kin := 0.5 * m.sync.K * dE * dE
		for i := range phiGrid {
			row[i] = kin + u[i]
		}
		field[j] = row
	}
	return field, nil
}
