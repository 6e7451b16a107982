package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

var below = rf.Machine{Beta: 0.9, Energy: 10, Eta: -0.01, Charge: -1}

func newModel(t *testing.T, cfg rf.Config) *bucket.Model {
	t.Helper()
	m, err := bucket.New(cfg, below, bucket.DefaultOptions())
	if err != nil {
		t.Fatalf("bucket.New: %v", err)
	}
	return m
}

func TestMeanHamiltonian(t *testing.T) {
	m := newModel(t, rf.SingleHarmonic(2, 0))
	e := NewMeanHamiltonian()

	// H(0, dE) = k dE^2 / 2 up to the rounding of phi_s.
	e.Observe(beam.Frame{Phi: []float64{0, 0}, DeltaE: []float64{10, -10}, Model: m})
	k := m.Synchronous().K
	if math.Abs(e.Value()-50*k) > 1e-9 {
		t.Errorf("expected mean H %f, got %f", 50*k, e.Value())
	}

	e.Reset()
	if e.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestHamiltonianDriftOnTrackedBeam(t *testing.T) {
	cfg := rf.SingleHarmonic(2, 0)
	b, err := beam.New(cfg, below, []float64{-0.5, 0, 0.5}, []float64{0, 10, -5}, beam.Options{})
	if err != nil {
		t.Fatal(err)
	}
	d := NewHamiltonianDrift()
	b.AddMetric(d)

	if err := b.AdvanceTurns(500); err != nil {
		t.Fatal(err)
	}
	// The discrete map conserves a nearby invariant, not H itself.
	if d.Value() > 0.2 {
		t.Errorf("hamiltonian drift too large: %f", d.Value())
	}
	if d.Value() == 0 {
		t.Error("expected some drift from the discrete map")
	}
}

func TestHamiltonianDriftRebaselines(t *testing.T) {
	m1 := newModel(t, rf.SingleHarmonic(2, 0))
	m2 := newModel(t, rf.SingleHarmonic(4, 0))
	d := NewHamiltonianDrift()

	f := beam.Frame{Phi: []float64{1}, DeltaE: []float64{0}}
	f.Model = m1
	d.Observe(f)
	f.Model = m2
	d.Observe(f)
	if d.Value() > 1e-12 {
		t.Errorf("rf change should start a new baseline, drift %g", d.Value())
	}

	d.Observe(beam.Frame{Phi: []float64{0.5}, DeltaE: []float64{0}, Model: m2})
	if d.Value() < 0.5 {
		t.Errorf("expected drift after moving, got %g", d.Value())
	}

	d.Reset()
	if d.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestCapture(t *testing.T) {
	m := newModel(t, rf.SingleHarmonic(2, 0))
	c := NewCapture()
	if c.Value() != 1.0 {
		t.Errorf("expected full capture before any turn, got %f", c.Value())
	}

	h := math.Sqrt(8 / m.Synchronous().K)
	c.Observe(beam.Frame{
		Phi:    []float64{0, 0, 1, 3},
		DeltaE: []float64{0, 0.5 * h, 2 * h, 0.5 * h},
		Model:  m,
	})
	if math.Abs(c.Value()-0.5) > 1e-12 {
		t.Errorf("expected capture 0.5, got %f", c.Value())
	}

	c.Reset()
	if c.Value() != 1.0 {
		t.Error("expected full capture after reset")
	}
}

func TestRMS(t *testing.T) {
	p := NewRMSPhase()
	e := NewRMSEnergy()
	f := beam.Frame{Phi: []float64{-1, 1, -1, 1}, DeltaE: []float64{0, 0, 0, 4}}
	p.Observe(f)
	e.Observe(f)

	if math.Abs(p.Value()-1) > 1e-12 {
		t.Errorf("expected rms phase 1, got %f", p.Value())
	}
	if math.Abs(e.Value()-math.Sqrt(3)) > 1e-12 {
		t.Errorf("expected rms energy sqrt(3), got %f", e.Value())
	}
	if Spread([]float64{3}) != 0 {
		t.Error("expected zero spread for one sample")
	}
	if p.Name() == e.Name() {
		t.Error("rms metrics must have distinct names")
	}
}
