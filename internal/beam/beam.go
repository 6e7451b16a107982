package beam

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

// Frame is what metrics see after each committed turn. The slices belong
// to the beam and must not be retained.
type Frame struct {
	Turn   int
	Phi    []float64
	DeltaE []float64
	Model  *bucket.Model
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Options struct {
	Bucket    bucket.Options
	Retention Retention
}

// Beam is a fixed-size ensemble tracked turn by turn under one RF setting
// at a time. A Beam has a single owner and no internal locking.
type Beam struct {
	machine rf.Machine
	opts    Options
	rf      rfState
	program program

	turn   int
	phi    []float64
	dE     []float64
	tmpPhi []float64
	tmpDE  []float64

	history []Snapshot
	metrics []Metric
}

// New copies the initial coordinates and derives the synchronous state of
// cfg. The initial ensemble is recorded as turn 0.
func New(cfg rf.Config, machine rf.Machine, phi, dE []float64, opts Options) (*Beam, error) {
	if len(phi) == 0 || len(phi) != len(dE) {
		return nil, fmt.Errorf("%w: %d phases and %d energies", ErrEnsemble, len(phi), len(dE))
	}
	if i := firstInvalid(phi, dE); i >= 0 {
		return nil, &TurnError{Turn: 0, Particle: i, Wrapped: ErrInvalidState}
	}

	s, err := derive(cfg, machine, opts.Bucket)
	if err != nil {
		return nil, err
	}

	n := len(phi)
	b := &Beam{
		machine: machine,
		opts:    opts,
		rf:      s,
		phi:     append(make([]float64, 0, n), phi...),
		dE:      append(make([]float64, 0, n), dE...),
		tmpPhi:  make([]float64, n),
		tmpDE:   make([]float64, n),
	}
	b.record()

	logrus.Debugf("beam: %d particles, phi_s=%.6f k=%.6g", n, s.model.Synchronous().Phase, s.model.Synchronous().K)
	return b, nil
}

func (b *Beam) AddMetric(m Metric) { b.metrics = append(b.metrics, m) }

// AdvanceTurns runs n sequential turns.
func (b *Beam) AdvanceTurns(n int) error {
	return b.Run(context.Background(), n)
}

// Run is AdvanceTurns with cancellation checked between turns. Turns
// committed before an error or cancellation stay committed.
func (b *Beam) Run(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative turn count %d", rf.ErrConfiguration, n)
	}
	start := b.turn
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.step(); err != nil {
			logrus.Warnf("beam: stopped at turn %d: %v", b.turn, err)
			return err
		}
	}
	if n > 0 {
		logrus.Debugf("beam: turns %d..%d committed", start+1, b.turn)
	}
	return nil
}

// step computes one turn into scratch buffers and commits it, together
// with any RF change due at its start, only when every coordinate is finite.
func (b *Beam) step() error {
	next := b.turn + 1
	s := b.rf
	due, consumed, ok := b.program.due(b.turn)
	if ok {
		s = due
	}

	if err := s.tracker.AdvanceAll(b.phi, b.dE, b.tmpPhi, b.tmpDE); err != nil {
		return &TurnError{Turn: next, Particle: -1, Wrapped: err}
	}
	if i := firstInvalid(b.tmpPhi, b.tmpDE); i >= 0 {
		return &TurnError{Turn: next, Particle: i, Wrapped: ErrInvalidState}
	}

	if ok {
		b.program.pop(consumed)
		b.rf = s
		logrus.Infof("beam: rf program applied at turn %d, phi_s=%.6f", next, s.model.Synchronous().Phase)
	}
	b.phi, b.tmpPhi = b.tmpPhi, b.phi
	b.dE, b.tmpDE = b.tmpDE, b.dE
	b.turn = next
	b.record()

	f := Frame{Turn: b.turn, Phi: b.phi, DeltaE: b.dE, Model: b.rf.model}
	for _, m := range b.metrics {
		m.Observe(f)
	}
	return nil
}

// ModifyRFSystem replaces the RF setting immediately. On error the beam is
// left untouched. Scheduled changes stay queued.
func (b *Beam) ModifyRFSystem(cfg rf.Config) error {
	s, err := derive(cfg, b.machine, b.opts.Bucket)
	if err != nil {
		return fmt.Errorf("modify rf system at turn %d: %w", b.turn, err)
	}
	b.rf = s
	logrus.Infof("beam: rf modified at turn %d, phi_s=%.6f", b.turn, s.model.Synchronous().Phase)
	return nil
}

func (b *Beam) record() {
	if !b.opts.Retention.wants(b.turn) {
		return
	}
	b.history = b.opts.Retention.record(b.history, Snapshot{
		Turn:   b.turn,
		Phase:  b.rf.model.Synchronous().Phase,
		Phi:    append([]float64(nil), b.phi...),
		DeltaE: append([]float64(nil), b.dE...),
	})
}

func (b *Beam) Len() int                        { return len(b.phi) }
func (b *Beam) Turn() int                       { return b.turn }
func (b *Beam) Machine() rf.Machine             { return b.machine }
func (b *Beam) Config() rf.Config               { return b.rf.model.Config() }
func (b *Beam) Model() *bucket.Model            { return b.rf.model }
func (b *Beam) Synchronous() bucket.Synchronous { return b.rf.model.Synchronous() }

// Phi returns a copy of the current phases.
func (b *Beam) Phi() []float64 { return append([]float64(nil), b.phi...) }

// DeltaE returns a copy of the current energy offsets.
func (b *Beam) DeltaE() []float64 { return append([]float64(nil), b.dE...) }

// Separatrices extracts the buckets of the RF setting currently in force.
func (b *Beam) Separatrices() ([]bucket.Separatrix, error) {
	return b.rf.model.Separatrices()
}

// History returns the retained snapshots, oldest first.
func (b *Beam) History() []Snapshot {
	out := make([]Snapshot, len(b.history))
	copy(out, b.history)
	return out
}

// Metrics returns the current value of every registered metric.
func (b *Beam) Metrics() map[string]float64 {
	out := make(map[string]float64, len(b.metrics))
	for _, m := range b.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func firstInvalid(phi, dE []float64) int {
	for i := range phi {
		if math.IsNaN(phi[i]) || math.IsInf(phi[i], 0) || math.IsNaN(dE[i]) || math.IsInf(dE[i], 0) {
			return i
		}
	}
	return -1
}
