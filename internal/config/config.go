package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

const (
	DefaultTurns   = 1000
	DefaultVoltage = 2.0
	DefaultBeta    = 0.9
	DefaultEnergy  = 10.0
	DefaultEta     = -0.01
	DefaultCharge  = -1.0
)

type Config struct {
	Name          string           `yaml:"name"`
	RF            rf.Config        `yaml:"rf"`
	Machine       rf.Machine       `yaml:"machine"`
	Turns         int              `yaml:"turns"`
	Record        RecordConfig     `yaml:"record"`
	Grid          GridConfig       `yaml:"grid"`
	Particles     []ParticleConfig `yaml:"particles"`
	ParticlesFile string           `yaml:"particles_file,omitempty"`
	Contours      []ContourConfig  `yaml:"contours,omitempty"`
	Changes       []beam.Change    `yaml:"rf_changes,omitempty"`
}

// RecordConfig selects the snapshot retention: none, all, every or last.
type RecordConfig struct {
	Mode string `yaml:"mode"`
	N    int    `yaml:"n,omitempty"`
}

// GridConfig sets the sampling resolution and the refine budget of the
// bucket searches. Zero values fall back to the bucket defaults.
type GridConfig struct {
	NPhi    int     `yaml:"nphi"`
	NDelta  int     `yaml:"ndelta"`
	MaxIter int     `yaml:"max_iter,omitempty"`
	Tol     float64 `yaml:"tol,omitempty"`
}

type ParticleConfig struct {
	Phi    float64 `yaml:"phi"`
	DeltaE float64 `yaml:"delta_e"`
}

// ContourConfig places Count particles evenly along the contour of the
// first bucket at Fraction of its separatrix level.
type ContourConfig struct {
	Fraction float64 `yaml:"fraction"`
	Count    int     `yaml:"count"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "single",
		RF:      rf.SingleHarmonic(DefaultVoltage, 0),
		Machine: rf.Machine{Beta: DefaultBeta, Energy: DefaultEnergy, Eta: DefaultEta, Charge: DefaultCharge},
		Turns:   DefaultTurns,
		Record:  RecordConfig{Mode: "every", N: 10},
		Grid:    GridConfig{NPhi: bucket.DefaultNPhi, NDelta: bucket.DefaultNDelta},
		Particles: []ParticleConfig{
			{Phi: 0.5, DeltaE: 0},
			{Phi: 1.5, DeltaE: 0},
			{Phi: 2.5, DeltaE: 0},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// An rf block or another particle source replaces the default wholesale
	// instead of merging into it.
	cfg := DefaultConfig()
	if _, ok := keys["rf"]; ok {
		cfg.RF = rf.Config{}
	}
	_, hasParticles := keys["particles"]
	_, hasFile := keys["particles_file"]
	_, hasContours := keys["contours"]
	if !hasParticles && (hasFile || hasContours) {
		cfg.Particles = nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked without building a bucket.
func (c *Config) Validate() error {
	if err := c.RF.Validate(); err != nil {
		return err
	}
	if c.Turns < 0 {
		return fmt.Errorf("%w: turns must not be negative, got %d", rf.ErrConfiguration, c.Turns)
	}
	if _, err := c.Retention(); err != nil {
		return err
	}
	if len(c.Particles) == 0 && c.ParticlesFile == "" && len(c.Contours) == 0 {
		return fmt.Errorf("%w: no particles, particles_file or contours given", rf.ErrConfiguration)
	}
	for i, cc := range c.Contours {
		if cc.Count <= 0 || !(cc.Fraction > 0) || cc.Fraction > 1 {
			return fmt.Errorf("%w: contour %d needs count > 0 and fraction in (0, 1]", rf.ErrConfiguration, i)
		}
	}
	for i, ch := range c.Changes {
		if ch.Turn < 0 {
			return fmt.Errorf("%w: rf change %d at negative turn %d", rf.ErrConfiguration, i, ch.Turn)
		}
		if err := ch.Config.Validate(); err != nil {
			return fmt.Errorf("rf change %d: %w", i, err)
		}
	}
	return nil
}

func (c *Config) Retention() (beam.Retention, error) {
	switch c.Record.Mode {
	case "", "none":
		return beam.RetainNone(), nil
	case "all":
		return beam.RetainAll(), nil
	case "every":
		if c.Record.N < 1 {
			return beam.Retention{}, fmt.Errorf("%w: record every needs n >= 1", rf.ErrConfiguration)
		}
		return beam.RetainEvery(c.Record.N), nil
	case "last":
		if c.Record.N < 1 {
			return beam.Retention{}, fmt.Errorf("%w: record last needs n >= 1", rf.ErrConfiguration)
		}
		return beam.RetainLast(c.Record.N), nil
	default:
		return beam.Retention{}, fmt.Errorf("%w: unknown record mode %q", rf.ErrConfiguration, c.Record.Mode)
	}
}

func (c *Config) BucketOptions() bucket.Options {
	return bucket.Options{
		NPhi:    c.Grid.NPhi,
		NDelta:  c.Grid.NDelta,
		MaxIter: c.Grid.MaxIter,
		Tol:     c.Grid.Tol,
	}
}

// InitialParticles returns the explicitly listed particles as slices.
func (c *Config) InitialParticles() (phi, dE []float64) {
	phi = make([]float64, len(c.Particles))
	dE = make([]float64, len(c.Particles))
	for i, p := range c.Particles {
		phi[i] = p.Phi
		dE[i] = p.DeltaE
	}
	return phi, dE
}

func (c *Config) Clone() *Config {
	out := *c
	out.RF = c.RF.Clone()
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	out.Contours = append([]ContourConfig(nil), c.Contours...)
	if c.Changes != nil {
		out.Changes = make([]beam.Change, len(c.Changes))
		for i, ch := range c.Changes {
			out.Changes[i] = beam.Change{Turn: ch.Turn, Config: ch.Config.Clone()}
		}
	}
	return &out
}
