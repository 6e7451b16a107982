package experiment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/config"
	"github.com/san-kum/longsim/internal/rf"
)

func TestRunPreset(t *testing.T) {
	cfg := config.GetPreset("single")
	cfg.Turns = 200
	e := New(cfg)
	require.NoError(t, e.Setup(NewRegistry().ListMetrics()))

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, res.Turns)
	assert.Len(t, res.Phi, 16)
	assert.Len(t, res.History, 21)
	require.Len(t, res.Separatrices, 1)
	assert.GreaterOrEqual(t, res.Metrics["capture"], 0.9)
	assert.Contains(t, res.Metrics, "hamiltonian_drift")
	assert.Positive(t, res.Metrics["rms_phase"])

	meta := e.Metadata(res)
	assert.Equal(t, "single", meta.Name)
	assert.Equal(t, 16, meta.Particles)
}

func TestRunRampAppliesProgram(t *testing.T) {
	e := New(config.GetPreset("ramp"))
	require.NoError(t, e.Setup(nil))
	assert.Equal(t, []int{500, 1000}, e.Beam().Scheduled())

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500, res.Turns)
	assert.Equal(t, []int{1, 2}, e.Beam().Config().Harmonics)
	assert.Empty(t, e.Beam().Scheduled())
	assert.Equal(t, 2.0, e.Metadata(res).RF.Amplitude)
}

func TestRunCanceled(t *testing.T) {
	e := New(config.DefaultConfig())
	require.NoError(t, e.Setup(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Turns)
}

func TestRunWithoutSetup(t *testing.T) {
	_, err := New(config.DefaultConfig()).Run(context.Background())
	assert.Error(t, err)
}

func TestSetupErrors(t *testing.T) {
	assert.Error(t, New(config.DefaultConfig()).Setup([]string{"nope"}))

	cfg := config.DefaultConfig()
	cfg.RF.EnergyGain = 10
	assert.ErrorIs(t, New(cfg).Setup(nil), rf.ErrConfiguration)

	cfg = config.DefaultConfig()
	cfg.ParticlesFile = filepath.Join(t.TempDir(), "missing.csv")
	assert.Error(t, New(cfg).Setup(nil))
}

func TestParticlesFromAllSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("phi,delta_e\n0.3,1\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.ParticlesFile = path
	cfg.Contours = []config.ContourConfig{{Fraction: 0.5, Count: 4}}
	e := New(cfg)
	require.NoError(t, e.Setup(nil))
	assert.Equal(t, 3+1+4, e.Beam().Len())
	assert.Equal(t, 0.3, e.Beam().Phi()[3])
}

func TestOnContour(t *testing.T) {
	m, err := bucket.New(rf.SingleHarmonic(2, 0), config.DefaultConfig().Machine, bucket.DefaultOptions())
	require.NoError(t, err)
	buckets, err := m.Buckets()
	require.NoError(t, err)
	level := buckets[0].CenterU + 0.5*(buckets[0].Level()-buckets[0].CenterU)

	phi, dE, err := OnContour(m, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, phi, 10)
	for i := range phi {
		h, err := m.Hamiltonian(phi[i], dE[i])
		require.NoError(t, err)
		assert.InDelta(t, level, h, 1e-6)
	}
}
