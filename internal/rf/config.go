package rf

import (
	"math"
)

// Config is one RF system setting. Values are replaced wholesale, never
// mutated field by field once handed to a beam.
//
// Ratios may omit the leading 1 of the fundamental: with one ratio fewer
// than harmonics, the first harmonic gets ratio 1.
type Config struct {
	Amplitude  float64   `yaml:"voltage" json:"voltage"`
	Ratios     []float64 `yaml:"ratios" json:"ratios"`
	Harmonics  []int     `yaml:"harmonics" json:"harmonics"`
	Phases     []float64 `yaml:"phases" json:"phases"`
	EnergyGain float64   `yaml:"energy_gain" json:"energy_gain"`
}

// SingleHarmonic returns a fundamental-only configuration.
func SingleHarmonic(amplitude, energyGain float64) Config {
	return Config{
		Amplitude:  amplitude,
		Ratios:     []float64{1},
		Harmonics:  []int{1},
		Phases:     []float64{0},
		EnergyGain: energyGain,
	}
}

// Validate checks the structural invariants of the configuration.
func (c Config) Validate() error {
	if !(c.Amplitude > 0) || math.IsInf(c.Amplitude, 0) {
		return configErrorf("voltage must be positive and finite, got %g", c.Amplitude)
	}
	n := len(c.Harmonics)
	if n == 0 {
		return configErrorf("at least one harmonic is required")
	}
	if len(c.Ratios) != n && len(c.Ratios) != n-1 {
		return configErrorf("%d ratios for %d harmonics", len(c.Ratios), n)
	}
	if len(c.Phases) != n {
		return configErrorf("%d phases for %d harmonics", len(c.Phases), n)
	}
	seen := make(map[int]bool, n)
	for i, h := range c.Harmonics {
		if h <= 0 {
			return configErrorf("harmonic %d is %d, must be positive", i, h)
		}
		if seen[h] {
			return configErrorf("duplicate harmonic %d", h)
		}
		seen[h] = true
		if !isFinite(c.ratio(i)) || !isFinite(c.Phases[i]) {
			return configErrorf("harmonic %d has a non-finite ratio or phase", h)
		}
	}
	if !isFinite(c.EnergyGain) {
		return configErrorf("energy gain must be finite, got %g", c.EnergyGain)
	}
	return nil
}

// Fundamental is the first harmonic number, the one k is defined on.
func (c Config) Fundamental() int {
	if len(c.Harmonics) == 0 {
		return 0
	}
	return c.Harmonics[0]
}

// Period is the smallest phase period of the voltage, 2π/gcd(h).
func (c Config) Period() float64 {
	g := 0
	for _, h := range c.Harmonics {
		g = gcd(g, h)
	}
	if g == 0 {
		return 2 * math.Pi
	}
	return 2 * math.Pi / float64(g)
}

// WithAmplitude returns a copy with a different fundamental voltage.
func (c Config) WithAmplitude(v float64) Config {
	out := c.Clone()
	out.Amplitude = v
	return out
}

// Clone returns a deep copy so callers cannot alias the slices.
func (c Config) Clone() Config {
	out := c
	out.Ratios = append([]float64(nil), c.Ratios...)
	out.Harmonics = append([]int(nil), c.Harmonics...)
	out.Phases = append([]float64(nil), c.Phases...)
	return out
}

// Scale bounds |V| from above: V * Σ|r_i|.
func (c Config) Scale() float64 {
	s := 0.0
	for i := range c.Harmonics {
		s += math.Abs(c.ratio(i))
	}
	return c.Amplitude * s
}

// Ratio returns the voltage ratio of harmonic i, filling in the implied
// fundamental ratio.
func (c Config) Ratio(i int) float64 {
	return c.ratio(i)
}

func (c Config) ratio(i int) float64 {
	if len(c.Ratios) == len(c.Harmonics) {
		return c.Ratios[i]
	}
	if i == 0 {
		return 1
	}
	return c.Ratios[i-1]
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
