// Package rf describes the RF system of a circular accelerator.
//
// A [Config] is an immutable description of a multi-harmonic cavity system:
// the fundamental voltage, the harmonic ratios, numbers and phase offsets,
// and the reference energy gain per turn. A [Machine] holds the opaque
// physical constants (beta, energy, slip factor, charge) that turn the RF
// system into a longitudinal map.
//
// # Voltage
//
//	cfg := rf.Config{Amplitude: 2, Harmonics: []int{1, 2}, Ratios: []float64{1, 0.5}, Phases: []float64{0, math.Pi}}
//	v := cfg.Voltage(0.3)
//
// Errors returned by this package and by the packages built on it wrap one
// of [ErrConfiguration], [ErrTransitionSingularity] or [ErrNonConvergence].
package rf
