package beam_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/longsim/internal/analysis"
	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

var stable = rf.Machine{Beta: 0.9, Energy: 10, Eta: -0.01, Charge: -1}

// trackFrom runs one particle for turns and returns its orbit.
func trackFrom(t *testing.T, cfg rf.Config, phi, dE float64, turns int) (phis, dEs []float64) {
	t.Helper()
	b, err := beam.New(cfg, stable, []float64{phi}, []float64{dE}, beam.Options{Retention: beam.RetainAll()})
	require.NoError(t, err)
	require.NoError(t, b.AdvanceTurns(turns))

	hist := b.History()
	require.Len(t, hist, turns+1)
	for _, s := range hist {
		phis = append(phis, s.Phi[0])
		dEs = append(dEs, s.DeltaE[0])
	}
	return phis, dEs
}

func windowArea(phi, dE []float64, from, to int) float64 {
	return analysis.EnclosedArea(phi[from:to], dE[from:to])
}

func TestAreaPreservation(t *testing.T) {
	cfg := rf.SingleHarmonic(2, 0)
	m, err := bucket.New(cfg, stable, bucket.DefaultOptions())
	require.NoError(t, err)
	buckets, err := m.Buckets()
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	for _, level := range []float64{1, 3} {
		curve, err := m.Contour(buckets[0], level)
		require.NoError(t, err)
		require.False(t, curve.Empty())

		// Start on the extracted curve, at its top.
		top := 0
		for i := 0; i < curve.Upper; i++ {
			if curve.DeltaE[i] > curve.DeltaE[top] {
				top = i
			}
		}
		phi, dE := trackFrom(t, cfg, curve.Phi[top], curve.DeltaE[top], 1000)

		early, late := windowArea(phi, dE, 0, 200), windowArea(phi, dE, 800, 1001)
		assert.InEpsilon(t, early, late, 1e-2, "level %g", level)
		assert.InEpsilon(t, curve.Area(), late, 2e-2, "level %g", level)
	}
}

func TestAreaPreservationFromSeparatrix(t *testing.T) {
	cfg := rf.SingleHarmonic(2, 0)
	m, err := bucket.New(cfg, stable, bucket.DefaultOptions())
	require.NoError(t, err)
	seps, err := m.Separatrices()
	require.NoError(t, err)
	require.Len(t, seps, 1)
	sep := seps[0]
	require.False(t, sep.Empty())

	// The map's invariant separatrix is tilted against the level curve of H:
	// where phi and deltaE share a sign the extracted curve lies just inside
	// it. Start on the upper branch nearest phi = 1.
	start := 0
	for i := 0; i < sep.Upper; i++ {
		if math.Abs(sep.Phi[i]-1) < math.Abs(sep.Phi[start]-1) {
			start = i
		}
	}
	require.Greater(t, sep.DeltaE[start], 0.0)

	phi, dE := trackFrom(t, cfg, sep.Phi[start], sep.DeltaE[start], 1000)

	for i := range phi {
		require.Less(t, math.Abs(phi[i]), sep.PhiMax, "turn %d left the bucket", i)
	}
	early, late := windowArea(phi, dE, 0, 501), windowArea(phi, dE, 500, 1001)
	assert.InEpsilon(t, early, late, 1e-2)
	assert.LessOrEqual(t, late, sep.Area())
	assert.Greater(t, late, 0.85*sep.Area())
}
