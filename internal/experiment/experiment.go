package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/config"
	"github.com/san-kum/longsim/internal/rf"
	"github.com/san-kum/longsim/internal/storage"
)

// Experiment is one configured run: a beam built from a config file or
// preset, its RF program and its metrics.
type Experiment struct {
	cfg  *config.Config
	beam *beam.Beam
}

type Result struct {
	Turns        int
	Phi          []float64
	DeltaE       []float64
	History      []beam.Snapshot
	Metrics      map[string]float64
	Synchronous  bucket.Synchronous
	Separatrices []bucket.Separatrix
	Elapsed      time.Duration
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the config, places the particles, schedules the RF
// program and registers the named metrics.
func (e *Experiment) Setup(metricNames []string) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	ret, err := e.cfg.Retention()
	if err != nil {
		return err
	}
	phi, dE, err := e.particles()
	if err != nil {
		return err
	}

	b, err := beam.New(e.cfg.RF, e.cfg.Machine, phi, dE, beam.Options{
		Bucket:    e.cfg.BucketOptions(),
		Retention: ret,
	})
	if err != nil {
		return err
	}
	if err := b.LoadProgram(e.cfg.Changes); err != nil {
		return err
	}

	reg := NewRegistry()
	for _, name := range metricNames {
		m, err := reg.GetMetric(name)
		if err != nil {
			return err
		}
		b.AddMetric(m)
	}
	e.beam = b
	return nil
}

func (e *Experiment) particles() (phi, dE []float64, err error) {
	phi, dE = e.cfg.InitialParticles()
	if e.cfg.ParticlesFile != "" {
		p, d, err := storage.LoadParticles(e.cfg.ParticlesFile)
		if err != nil {
			return nil, nil, err
		}
		phi = append(phi, p...)
		dE = append(dE, d...)
	}
	if len(e.cfg.Contours) > 0 {
		m, err := bucket.New(e.cfg.RF, e.cfg.Machine, e.cfg.BucketOptions())
		if err != nil {
			return nil, nil, err
		}
		for _, cc := range e.cfg.Contours {
			p, d, err := OnContour(m, cc.Fraction, cc.Count)
			if err != nil {
				return nil, nil, err
			}
			phi = append(phi, p...)
			dE = append(dE, d...)
		}
	}
	return phi, dE, nil
}

// OnContour places n particles evenly, by curve index, along the contour of
// the first bucket at the given fraction of the way from its stable point to
// its separatrix level.
func OnContour(m *bucket.Model, fraction float64, n int) (phi, dE []float64, err error) {
	buckets, err := m.Buckets()
	if err != nil {
		return nil, nil, err
	}
	b := buckets[0]
	level := b.CenterU + fraction*(b.Level()-b.CenterU)
	curve, err := m.Contour(b, level)
	if err != nil {
		return nil, nil, err
	}
	if curve.Empty() {
		return nil, nil, fmt.Errorf("%w: contour at fraction %g is empty", rf.ErrConfiguration, fraction)
	}

	open := len(curve.Phi) - 1
	for i := 0; i < n; i++ {
		j := i * open / n
		phi = append(phi, curve.Phi[j])
		dE = append(dE, curve.DeltaE[j])
	}
	return phi, dE, nil
}

// Run tracks the configured number of turns. On cancellation or a failed
// turn the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.beam == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	runErr := e.beam.Run(ctx, e.cfg.Turns)
	res := e.result(time.Since(start))
	if runErr != nil {
		return res, runErr
	}

	logrus.Infof("experiment %s: %d turns, %d particles in %s",
		e.cfg.Name, res.Turns, len(res.Phi), res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (e *Experiment) result(elapsed time.Duration) *Result {
	b := e.beam
	res := &Result{
		Turns:       b.Turn(),
		Phi:         b.Phi(),
		DeltaE:      b.DeltaE(),
		History:     b.History(),
		Metrics:     b.Metrics(),
		Synchronous: b.Synchronous(),
		Elapsed:     elapsed,
	}
	seps, err := b.Separatrices()
	if err != nil {
		logrus.Warnf("experiment %s: no separatrix: %v", e.cfg.Name, err)
	}
	res.Separatrices = seps
	return res
}

// Beam returns the underlying beam, nil before Setup.
func (e *Experiment) Beam() *beam.Beam {
	return e.beam
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(res *Result) storage.RunMetadata {
	return storage.RunMetadata{
		Name:        e.cfg.Name,
		RF:          e.cfg.RF.Clone(),
		Machine:     e.cfg.Machine,
		Synchronous: res.Synchronous,
		Turns:       res.Turns,
		Particles:   len(res.Phi),
		Changes:     e.cfg.Changes,
		Metrics:     res.Metrics,
	}
}
