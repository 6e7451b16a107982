package analysis

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

// SweepPoint is the bucket structure for one parameter value. Err is set
// when the RF setting has no synchronous phase or no bucket.
type SweepPoint struct {
	Param  float64
	Wells  int
	Area   float64
	Height float64
	Err    error
}

// Setter writes a parameter value into an RF configuration.
type Setter func(cfg *rf.Config, v float64)

// HarmonicPhase sets the phase of harmonic index i.
func HarmonicPhase(i int) Setter {
	return func(cfg *rf.Config, v float64) { cfg.Phases[i] = v }
}

// HarmonicRatio sets the ratio of harmonic index i. Configurations with an
// implied leading ratio are expanded first.
func HarmonicRatio(i int) Setter {
	return func(cfg *rf.Config, v float64) {
		if len(cfg.Ratios) < len(cfg.Harmonics) {
			full := make([]float64, len(cfg.Harmonics))
			for j := range full {
				full[j] = cfg.Ratio(j)
			}
			cfg.Ratios = full
		}
		cfg.Ratios[i] = v
	}
}

func EnergyGain(cfg *rf.Config, v float64) { cfg.EnergyGain = v }
func Amplitude(cfg *rf.Config, v float64)  { cfg.Amplitude = v }

// Sweep rebuilds the bucket model for every value in params and records the
// well count, total bucket area and largest bucket height.
func Sweep(base rf.Config, machine rf.Machine, opts bucket.Options, set Setter, params []float64) []SweepPoint {
	results := make([]SweepPoint, 0, len(params))
	for _, v := range params {
		cfg := base.Clone()
		set(&cfg, v)

		pt := SweepPoint{Param: v}
		seps, err := separatrices(cfg, machine, opts)
		if err != nil {
			pt.Err = err
			logrus.Debugf("sweep: %g: %v", v, err)
			results = append(results, pt)
			continue
		}
		for _, s := range seps {
			if s.Empty() {
				continue
			}
			pt.Wells++
			pt.Area += s.Area()
			if h := s.Height(); h > pt.Height {
				pt.Height = h
			}
		}
		results = append(results, pt)
	}
	return results
}

func separatrices(cfg rf.Config, machine rf.Machine, opts bucket.Options) ([]bucket.Separatrix, error) {
	m, err := bucket.New(cfg, machine, opts)
	if err != nil {
		return nil, err
	}
	return m.Separatrices()
}
