package tracking

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

var scenario = rf.Machine{Beta: 0.9, Energy: 10, Eta: -0.01, Charge: 1}

func TestLiteralScenario(t *testing.T) {
	m, err := bucket.New(rf.SingleHarmonic(2, 0), scenario, bucket.DefaultOptions())
	require.NoError(t, err)
	tr, err := FromModel(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.01235, tr.K(), 1e-5)

	p := tr.Advance(Particle{Phi: 0.1})
	assert.InDelta(t, 2*math.Sin(0.1), p.DeltaE, 1e-15)
	assert.InDelta(t, 0.1997, p.DeltaE, 1e-4)
	assert.InDelta(t, 0.10247, p.Phi, 1e-5)
	assert.InDelta(t, 0.1+tr.K()*p.DeltaE, p.Phi, 1e-15)
}

func TestUpdateOrder(t *testing.T) {
	cfg := rf.SingleHarmonic(1, 0.25)
	tr, err := New(cfg, cfg.EnergyGain, 0.5, -1)
	require.NoError(t, err)

	// Kick with the old phase, drift with the new energy.
	in := Particle{Phi: 0.7, DeltaE: 0.3}
	wantDE := 0.3 - (math.Sin(0.7) - 0.25)
	wantPhi := 0.7 + 0.5*wantDE

	out := tr.Advance(in)
	assert.InDelta(t, wantDE, out.DeltaE, 1e-15)
	assert.InDelta(t, wantPhi, out.Phi, 1e-15)
}

func TestNewRejectsTransition(t *testing.T) {
	_, err := New(rf.SingleHarmonic(1, 0), 0, 0, 1)
	assert.ErrorIs(t, err, rf.ErrTransitionSingularity)

	_, err = New(nil, 0, 1, 1)
	assert.ErrorIs(t, err, rf.ErrConfiguration)

	m, err := bucket.New(rf.SingleHarmonic(1, 0), rf.Machine{Beta: 0.9, Eta: 0, Charge: 1}, bucket.DefaultOptions())
	require.NoError(t, err)
	_, err = FromModel(m)
	assert.ErrorIs(t, err, rf.ErrTransitionSingularity)
}

func TestMapIsAreaPreserving(t *testing.T) {
	cfg := rf.Config{Amplitude: 1.3, Ratios: []float64{1, 0.4}, Harmonics: []int{1, 3}, Phases: []float64{0, 1.1}, EnergyGain: 0.2}
	tr, err := New(cfg, cfg.EnergyGain, 0.02, -1)
	require.NoError(t, err)

	const h = 1e-6
	for _, p := range []Particle{{0, 0}, {0.4, -3}, {-2.2, 10}, {3, 1}} {
		a := tr.Advance(Particle{p.Phi + h, p.DeltaE})
		b := tr.Advance(Particle{p.Phi - h, p.DeltaE})
		c := tr.Advance(Particle{p.Phi, p.DeltaE + h})
		d := tr.Advance(Particle{p.Phi, p.DeltaE - h})

		j11 := (a.Phi - b.Phi) / (2 * h)
		j21 := (a.DeltaE - b.DeltaE) / (2 * h)
		j12 := (c.Phi - d.Phi) / (2 * h)
		j22 := (c.DeltaE - d.DeltaE) / (2 * h)
		assert.InDelta(t, 1, j11*j22-j12*j21, 1e-6, "jacobian at %+v", p)
	}
}

func TestAdvanceAllMatchesAdvance(t *testing.T) {
	cfg := rf.Config{Amplitude: 2, Ratios: []float64{1, 0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, math.Pi}}
	tr, err := New(cfg, 0, 0.01235, -1)
	require.NoError(t, err)

	const n = 3*minChunk + 17
	phi := make([]float64, n)
	de := make([]float64, n)
	for i := range phi {
		phi[i] = -math.Pi + 2*math.Pi*float64(i)/n
		de[i] = float64(i%41) - 20
	}

	phiOut := make([]float64, n)
	deOut := make([]float64, n)
	require.NoError(t, tr.AdvanceAll(phi, de, phiOut, deOut))
	for i := 0; i < n; i += 97 {
		want := tr.Advance(Particle{phi[i], de[i]})
		assert.Equal(t, want.Phi, phiOut[i])
		assert.Equal(t, want.DeltaE, deOut[i])
	}

	// In place gives the same result.
	require.NoError(t, tr.AdvanceAll(phi, de, phi, de))
	assert.Equal(t, phiOut, phi)
	assert.Equal(t, deOut, de)
}

func TestAdvanceAllLengthMismatch(t *testing.T) {
	tr, err := New(rf.SingleHarmonic(1, 0), 0, 1, 1)
	require.NoError(t, err)
	err = tr.AdvanceAll(make([]float64, 3), make([]float64, 2), make([]float64, 3), make([]float64, 3))
	assert.ErrorIs(t, err, rf.ErrConfiguration)
}

func TestTrack(t *testing.T) {
	tr, err := New(rf.SingleHarmonic(1, 0), 0, 0.01, -1)
	require.NoError(t, err)

	path := tr.Track(Particle{Phi: 0.5}, 10)
	require.Len(t, path, 11)
	assert.Equal(t, Particle{Phi: 0.5}, path[0])
	assert.Equal(t, tr.Advance(path[9]), path[10])
}

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		n, chunk int
	}{
		{0, 10},
		{1, 10},
		{10, 10},
		{11, 10},
		{1000, 7},
		{100003, 4096},
	}

	for _, tt := range tests {
		hits := make([]int32, tt.n)
		var calls int32
		ParallelFor(tt.n, tt.chunk, func(start, end int) {
			atomic.AddInt32(&calls, 1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", tt.n, i, h)
			}
		}
		if tt.n == 0 && calls != 0 {
			t.Errorf("n=0: fn called %d times", calls)
		}
	}
}
