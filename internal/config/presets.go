package config

import (
	"math"
	"sort"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/rf"
)

var stableMachine = rf.Machine{Beta: DefaultBeta, Energy: DefaultEnergy, Eta: DefaultEta, Charge: DefaultCharge}

var Presets = map[string]*Config{
	"single": {
		Name: "single", RF: rf.SingleHarmonic(2, 0), Machine: stableMachine, Turns: 1000,
		Record:   RecordConfig{Mode: "every", N: 10},
		Contours: []ContourConfig{{Fraction: 0.25, Count: 8}, {Fraction: 0.75, Count: 8}},
	},
	"double-shortening": {
		Name: "double-shortening", Machine: stableMachine, Turns: 2000,
		RF:       rf.Config{Amplitude: 1, Ratios: []float64{1, 0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, 0}},
		Record:   RecordConfig{Mode: "every", N: 20},
		Contours: []ContourConfig{{Fraction: 0.5, Count: 16}},
	},
	"double-lengthening": {
		Name: "double-lengthening", Machine: stableMachine, Turns: 2000,
		RF:       rf.Config{Amplitude: 1, Ratios: []float64{1, 0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, math.Pi}},
		Record:   RecordConfig{Mode: "every", N: 20},
		Contours: []ContourConfig{{Fraction: 0.5, Count: 16}},
	},
	"accelerating": {
		Name: "accelerating", RF: rf.SingleHarmonic(2, 1), Machine: stableMachine, Turns: 1000,
		Record:   RecordConfig{Mode: "every", N: 10},
		Contours: []ContourConfig{{Fraction: 0.5, Count: 12}},
	},
	"triple": {
		Name: "triple", Machine: stableMachine, Turns: 2000,
		RF:       rf.Config{Amplitude: 1, Ratios: []float64{1, 0.8}, Harmonics: []int{1, 3}, Phases: []float64{0, math.Pi}},
		Record:   RecordConfig{Mode: "last", N: 100},
		Contours: []ContourConfig{{Fraction: 0.5, Count: 8}},
	},
	"ramp": {
		Name: "ramp", RF: rf.SingleHarmonic(2, 0), Machine: stableMachine, Turns: 1500,
		Record:   RecordConfig{Mode: "every", N: 10},
		Contours: []ContourConfig{{Fraction: 0.5, Count: 12}},
		Changes: []beam.Change{
			{Turn: 500, Config: rf.SingleHarmonic(3, 0)},
			{Turn: 1000, Config: rf.Config{Amplitude: 3, Ratios: []float64{1, 0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, math.Pi}}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
