package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/longsim/internal/config"
	"github.com/san-kum/longsim/internal/experiment"
	"github.com/san-kum/longsim/internal/storage"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run, built from a preset or a config file. Turns and
// Voltage override the loaded values when non-zero.
type ScenarioStep struct {
	Preset  string   `yaml:"preset,omitempty"`
	Config  string   `yaml:"config,omitempty"`
	Turns   int      `yaml:"turns,omitempty"`
	Voltage float64  `yaml:"voltage,omitempty"`
	Metrics []string `yaml:"metrics,omitempty"`
	SaveAs  string   `yaml:"save_as,omitempty"`
}

// StepResult is one finished scenario step.
type StepResult struct {
	Step     int
	Config   *config.Config
	Result   *experiment.Result
	Metadata storage.RunMetadata
}

// LoadScenario loads a scenario from a YAML file. Relative config paths are
// resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		s := &scenario.Steps[i]
		if s.Config != "" && !filepath.IsAbs(s.Config) {
			s.Config = filepath.Join(dir, s.Config)
		}
	}
	return &scenario, nil
}

// Resolve builds the run configuration for a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}

	if s.Turns != 0 {
		cfg.Turns = s.Turns
	}
	if s.Voltage != 0 {
		cfg.RF.Amplitude = s.Voltage
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
// Results of the steps that finished are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logrus.Infof("scenario %s: step %d/%d: %s", scenario.Name, i+1, len(scenario.Steps), cfg.Name)

		exp := experiment.New(cfg)
		if err := exp.Setup(step.Metrics); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Step:     i + 1,
			Config:   cfg,
			Result:   res,
			Metadata: exp.Metadata(res),
		})
	}

	return results, nil
}

// MonteCarloConfig scatters Trials particles uniformly in a box around
// (Phi, DeltaE) and tracks them through Base's RF program.
type MonteCarloConfig struct {
	Base         *config.Config
	Phi          float64
	DeltaE       float64
	PhiSpread    float64
	DeltaESpread float64
	Trials       int
	Seed         int64
}

// MonteCarloResult is the fate of one trial particle.
type MonteCarloResult struct {
	Trial    int
	Phi0     float64
	DeltaE0  float64
	Phi      float64
	DeltaE   float64
	Captured bool // inside a final separatrix
}

// RunMonteCarlo tracks all trials as one ensemble.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.Base == nil {
		return nil, fmt.Errorf("monte carlo needs a base config")
	}
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo needs trials > 0, got %d", mc.Trials)
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cfg := mc.Base.Clone()
	cfg.ParticlesFile = ""
	cfg.Contours = nil
	cfg.Record = config.RecordConfig{Mode: "none"}
	cfg.Particles = make([]config.ParticleConfig, mc.Trials)
	for i := range cfg.Particles {
		cfg.Particles[i] = config.ParticleConfig{
			Phi:    mc.Phi + (rng.Float64()-0.5)*2*mc.PhiSpread,
			DeltaE: mc.DeltaE + (rng.Float64()-0.5)*2*mc.DeltaESpread,
		}
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(nil); err != nil {
		return nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, mc.Trials)
	for i, p := range cfg.Particles {
		phi, dE := res.Phi[i], res.DeltaE[i]
		captured := false
		if !math.IsNaN(phi) && !math.IsInf(phi, 0) {
			for _, s := range res.Separatrices {
				if s.Contains(phi, dE) {
					captured = true
					break
				}
			}
		}
		results[i] = MonteCarloResult{
			Trial:    i,
			Phi0:     p.Phi,
			DeltaE0:  p.DeltaE,
			Phi:      phi,
			DeltaE:   dE,
			Captured: captured,
		}
	}

	logrus.Debugf("monte carlo: %d trials over %d turns", mc.Trials, res.Turns)
	return results, nil
}

// MonteCarloStats counts captured and lost trials.
func MonteCarloStats(results []MonteCarloResult) (captured, lost int) {
	for _, r := range results {
		if r.Captured {
			captured++
		} else {
			lost++
		}
	}
	return
}
