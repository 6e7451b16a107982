// Package bucket computes the stationary structure of a longitudinal RF
// bucket: the potential obtained by integrating the RF voltage, the
// synchronous phase, the single-particle Hamiltonian, and the separatrix
// curves bounding every stable well.
//
// A [Model] is built once per RF configuration and is immutable afterwards,
// so it can be read from several goroutines while a beam is being tracked:
//
//	m, err := bucket.New(cfg, machine, bucket.DefaultOptions())
//	seps, err := m.Separatrices()
//	for _, s := range seps {
//	    fmt.Println(s.Well, s.Level, s.Height(), s.Area())
//	}
//
// # Potential normalisation
//
// [Model.Potential] is the RF potential -(1/2π)∫(V-dE_s) measured from the
// synchronous phase. The Hamiltonian uses the same integral scaled by
// 2π·charge, which is the scaling that makes it an invariant of the
// tracking map.
package bucket
