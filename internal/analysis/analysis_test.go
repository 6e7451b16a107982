package analysis

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
	"github.com/san-kum/longsim/internal/tracking"
)

var below = rf.Machine{Beta: 0.9, Energy: 10, Eta: -0.01, Charge: -1}

func TestEnclosedArea(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 720
	phi := make([]float64, n)
	dE := make([]float64, n)
	for i, j := range rng.Perm(n) {
		a := 2 * math.Pi * float64(j) / float64(n)
		phi[i] = 1 + 2*math.Cos(a)
		dE[i] = -4 + 3*math.Sin(a)
	}
	assert.InEpsilon(t, 6*math.Pi, EnclosedArea(phi, dE), 1e-3)

	assert.Zero(t, EnclosedArea([]float64{0, 1}, []float64{0, 1}))
	assert.Zero(t, EnclosedArea([]float64{0, 1, 2}, []float64{0, 1}))
}

func TestSynchrotronTuneOfSine(t *testing.T) {
	x := make([]float64, 1024)
	for i := range x {
		x[i] = 0.3 + math.Sin(2*math.Pi*0.0371*float64(i)+0.2)
	}
	qs, err := SynchrotronTune(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.0371, qs, 2e-4)
}

func TestSynchrotronTuneOfTrackedParticle(t *testing.T) {
	m, err := bucket.New(rf.SingleHarmonic(2, 0), below, bucket.DefaultOptions())
	require.NoError(t, err)
	tr, err := tracking.FromModel(m)
	require.NoError(t, err)

	path := tr.Track(tracking.Particle{Phi: 0.01}, 2047)
	phases := make([]float64, len(path))
	for i, p := range path {
		phases[i] = p.Phi
	}

	// Linearized map with V = 2: cos(2π Qs) = 1 - k.
	want := math.Acos(1-m.Synchronous().K) / (2 * math.Pi)
	qs, err := SynchrotronTune(phases)
	require.NoError(t, err)
	assert.InDelta(t, want, qs, 5e-4)
}

func TestSynchrotronTuneErrors(t *testing.T) {
	_, err := SynchrotronTune(make([]float64, 8))
	assert.Error(t, err)

	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 2
	}
	_, err = SynchrotronTune(flat)
	assert.Error(t, err)
}

func TestPowerSpectrumLength(t *testing.T) {
	assert.Len(t, PowerSpectrum(make([]float64, 100)), 51)
	assert.Nil(t, PowerSpectrum([]float64{1}))
}

func TestLyapunovExponent(t *testing.T) {
	stable, err := tracking.New(rf.SingleHarmonic(2, 0), 0, 0.01/0.81, -1)
	require.NoError(t, err)
	lambda := LyapunovExponent(stable, tracking.Particle{Phi: 0.5}, 2000, 1e-9)
	assert.Less(t, math.Abs(lambda), 0.02)

	// Same RF with the opposite charge: phi = 0 is a saddle with
	// eigenvalue 1 + k + sqrt((1+k)^2 - 1).
	unstable, err := tracking.New(rf.SingleHarmonic(2, 0), 0, 0.01/0.81, 1)
	require.NoError(t, err)
	k := unstable.K()
	want := math.Log(1 + k + math.Sqrt((1+k)*(1+k)-1))
	lambda = LyapunovExponent(unstable, tracking.Particle{}, 500, 1e-9)
	assert.InDelta(t, want, lambda, 0.01)

	assert.Zero(t, LyapunovExponent(stable, tracking.Particle{}, 0, 1e-9))
}

func TestSweepSecondHarmonicPhase(t *testing.T) {
	base := rf.Config{Amplitude: 1, Ratios: []float64{0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, 0}}
	pts := Sweep(base, below, bucket.DefaultOptions(), HarmonicPhase(1), []float64{0, math.Pi})
	require.Len(t, pts, 2)
	for _, p := range pts {
		require.NoError(t, p.Err)
		assert.Equal(t, 1, p.Wells)
	}
	assert.Greater(t, pts[1].Area, pts[0].Area)
	assert.Equal(t, 0.0, base.Phases[1], "sweep must not touch the base configuration")
}

func TestSweepRatioAndGain(t *testing.T) {
	base := rf.Config{Amplitude: 1, Ratios: []float64{0.5}, Harmonics: []int{1, 2}, Phases: []float64{0, math.Pi}}
	pts := Sweep(base, below, bucket.DefaultOptions(), HarmonicRatio(1), []float64{0, 0.5})
	require.Len(t, pts, 2)
	require.NoError(t, pts[0].Err)
	require.NoError(t, pts[1].Err)
	assert.Greater(t, pts[1].Area, pts[0].Area)

	single := rf.SingleHarmonic(2, 0)
	pts = Sweep(single, below, bucket.DefaultOptions(), EnergyGain, []float64{0, 1, 5})
	require.Len(t, pts, 3)
	assert.NoError(t, pts[0].Err)
	assert.NoError(t, pts[1].Err)
	assert.Less(t, pts[1].Area, pts[0].Area)
	assert.ErrorIs(t, pts[2].Err, rf.ErrConfiguration)
	assert.Zero(t, pts[2].Wells)

	pts = Sweep(single, below, bucket.DefaultOptions(), Amplitude, []float64{1, 4})
	assert.InEpsilon(t, 2, pts[1].Height/pts[0].Height, 1e-3)
}

func TestPhasePortraitToASCII(t *testing.T) {
	m, err := bucket.New(rf.SingleHarmonic(2, 0), below, bucket.DefaultOptions())
	require.NoError(t, err)
	seps, err := m.Separatrices()
	require.NoError(t, err)

	p := NewPhasePortrait([]float64{0.5}, []float64{3})
	p.AddSeparatrix(seps[0])
	p.AddSeparatrix(bucket.Separatrix{})
	require.Len(t, p.Curves, 1)

	out := PhasePortraitToASCII(p, 60, 20)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 20)
	for _, l := range lines {
		assert.Equal(t, 60, utf8.RuneCountInString(l))
	}
	assert.Equal(t, 1, strings.Count(out, "•"))
	assert.Contains(t, out, "·")
	assert.Contains(t, out, "┼")

	assert.Empty(t, PhasePortraitToASCII(nil, 60, 20))
	assert.Empty(t, PhasePortraitToASCII(&PhasePortrait{}, 60, 20))
}

func TestPortraitFromHistory(t *testing.T) {
	hist := []beam.Snapshot{
		{Turn: 0, Phi: []float64{0, 1}, DeltaE: []float64{2, 3}},
		{Turn: 1, Phi: []float64{4, 5}, DeltaE: []float64{6, 7}},
	}
	one := PortraitFromHistory(hist, 1)
	assert.Equal(t, []Point{{1, 3}, {5, 7}}, one.Points)
	all := PortraitFromHistory(hist, -1)
	assert.Len(t, all.Points, 4)
	assert.Empty(t, PortraitFromHistory(hist, 9).Points)
}

func TestPhasePortraitToSVG(t *testing.T) {
	p := NewPhasePortrait([]float64{-1, 1}, []float64{-2, 2})
	p.Curves = append(p.Curves, []Point{{-3, 0}, {0, 3}, {3, 0}, {0, -3}, {-3, 0}})

	out := PhasePortraitToSVG(p, 400, 300)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Equal(t, 1, strings.Count(out, "<path"))
	assert.Contains(t, out, "<line")

	assert.Empty(t, PhasePortraitToSVG(nil, 400, 300))
	assert.Empty(t, PhasePortraitToSVG(&PhasePortrait{}, 400, 300))
	assert.Empty(t, PhasePortraitToSVG(p, 0, 300))
}
