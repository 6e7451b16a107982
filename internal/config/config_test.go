package config

import (
	"errors"
	"os"
	"path/filepath"
	"math"
	"testing"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Turns <= 0 {
		t.Error("turns should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Machine.Charge*cfg.Machine.Eta <= 0 {
		t.Error("default machine should give a stable synchronous phase")
	}
	phi, dE := cfg.InitialParticles()
	if len(phi) != 3 || len(dE) != 3 {
		t.Errorf("expected 3 particles, got %d", len(phi))
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("double-lengthening")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.RF.Harmonics) != 2 {
		t.Errorf("expected 2 harmonics, got %d", len(cfg.RF.Harmonics))
	}

	cfg.RF.Phases[1] = 0
	if again := GetPreset("double-lengthening"); again.RF.Phases[1] == 0 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := GetPreset("ramp")
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Changes) != 2 || got.Changes[1].Turn != 1000 {
		t.Fatalf("rf program lost: %+v", got.Changes)
	}
	if got.Changes[1].Config.Harmonics[1] != 2 {
		t.Errorf("expected second harmonic 2, got %v", got.Changes[1].Config.Harmonics)
	}
	if len(got.Particles) != 0 {
		t.Errorf("contour preset should not inherit default particles, got %d", len(got.Particles))
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
name: custom
turns: 50
rf:
  voltage: 1.5
  harmonics: [1, 3]
  ratios: [0.2]
  phases: [0, 0.4]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Turns != 50 || cfg.Name != "custom" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Machine.Beta != DefaultBeta {
		t.Errorf("expected default beta, got %f", cfg.Machine.Beta)
	}
	if cfg.RF.Ratio(0) != 1 || cfg.RF.Ratio(1) != 0.2 {
		t.Errorf("expected implied leading ratio, got %v", cfg.RF.Ratios)
	}
	if cfg.RF.EnergyGain != 0 {
		t.Errorf("rf block should replace the default, got gain %f", cfg.RF.EnergyGain)
	}
	if len(cfg.Particles) != 3 {
		t.Errorf("expected default particles, got %d", len(cfg.Particles))
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("turns: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative turns", func(c *Config) { c.Turns = -1 }},
		{"bad record mode", func(c *Config) { c.Record.Mode = "sometimes" }},
		{"every without n", func(c *Config) { c.Record = RecordConfig{Mode: "every"} }},
		{"no particles", func(c *Config) { c.Particles = nil }},
		{"bad contour", func(c *Config) { c.Contours = []ContourConfig{{Fraction: 2, Count: 3}} }},
		{"bad rf", func(c *Config) { c.RF.Harmonics = []int{0} }},
		{"bad change", func(c *Config) {
			c.Changes = append(c.Changes, GetPreset("ramp").Changes[0])
			c.Changes[0].Config.Amplitude = 0
		}},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, rf.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", tt.name, err)
		}
	}
}

func TestRetention(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"", "none"},
		{"none", "none"},
		{"all", "all"},
		{"every", "every"},
		{"last", "last"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Record = RecordConfig{Mode: tt.mode, N: 5}
		r, err := cfg.Retention()
		if err != nil {
			t.Fatalf("%s: %v", tt.mode, err)
		}
		if r.String() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.mode, tt.want, r.String())
		}
	}
}

func TestBucketOptionsFromGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	body := "grid:\n  nphi: 1000\n  ndelta: 200\n  max_iter: 80\n  tol: 1e-10\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := cfg.BucketOptions()
	want := bucket.Options{NPhi: 1000, NDelta: 200, MaxIter: 80, Tol: 1e-10}
	if opts != want {
		t.Errorf("bucket options = %+v, want %+v", opts, want)
	}
}

func TestBucketOptionsBuildStationaryBucket(t *testing.T) {
	for _, name := range []string{"single", "double-lengthening"} {
		cfg := GetPreset(name)
		m, err := bucket.New(cfg.RF, cfg.Machine, cfg.BucketOptions())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if phi := m.Synchronous().Phase; math.Abs(phi) > 1e-4 {
			t.Errorf("%s: phi_s = %g, want 0", name, phi)
		}
	}
}
