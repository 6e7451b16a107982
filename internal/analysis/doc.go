// Package analysis turns tracked orbits and bucket models into numbers and
// pictures:
//
//   - [EnclosedArea]: phase-space area of a sampled closed orbit
//   - [SynchrotronTune]: dominant oscillation frequency of a turn series
//   - [LyapunovExponent]: growth rate of a small offset under the map
//   - [Sweep]: bucket count, area and height over an RF parameter scan
//   - [PhasePortraitToASCII]: terminal rendering of phase space
//
// # Tune
//
// A particle oscillating inside a bucket shows a single spectral line at
// the synchrotron tune Qs, in oscillations per turn:
//
//	qs, err := analysis.SynchrotronTune(phases)
//	// small amplitude, single harmonic: qs ≈ sqrt(k*V*|cos phi_s|)/(2π)
package analysis
