package bucket

import (
	"errors"
	"math"

	"github.com/san-kum/longsim/internal/rf"
)

// Synchronous holds the quantities derived from one RF configuration.
type Synchronous struct {
	Phase           float64 `json:"phase"`
	Slope           float64 `json:"slope"`
	K               float64 `json:"k"`
	BelowTransition bool    `json:"below_transition"`
}

// Model is the potential, Hamiltonian and bucket structure of one RF
// configuration. It never changes after New.
type Model struct {
	cfg     rf.Config
	machine rf.Machine
	opts    Options
	sync    Synchronous
	kErr    error
	tbl     actionTable
}

// New validates cfg, derives k and the synchronous phase, and tabulates the
// potential. At transition (eta == 0) the model is still built so voltage and
// potential can be sampled; Hamiltonian and separatrix calls then fail with
// rf.ErrTransitionSingularity.
func New(cfg rf.Config, machine rf.Machine, opts Options) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		cfg:     cfg.Clone(),
		machine: machine,
		opts:    opts.withDefaults(),
	}

	k, err := machine.MotionConstant(cfg.Fundamental())
	if err != nil {
		if !errors.Is(err, rf.ErrTransitionSingularity) {
			return nil, err
		}
		m.kErr = err
	}
	m.sync.K = k
	m.sync.BelowTransition = machine.BelowTransition()

	phi, err := m.SynchronousPhase()
	if err != nil {
		return nil, err
	}
	m.sync.Phase = phi
	m.sync.Slope = cfg.Slope(phi)
	m.tbl = newActionTable(m.force, phi, m.opts.NPhi)
	return m, nil
}

func (m *Model) Config() rf.Config           { return m.cfg.Clone() }
func (m *Model) Machine() rf.Machine         { return m.machine }
func (m *Model) Options() Options            { return m.opts }
func (m *Model) Synchronous() Synchronous    { return m.sync }
func (m *Model) Voltage(phi float64) float64 { return m.cfg.Voltage(phi) }

// MotionConstant returns k, or rf.ErrTransitionSingularity at transition.
func (m *Model) MotionConstant() (float64, error) {
	if m.kErr != nil {
		return 0, m.kErr
	}
	return m.sync.K, nil
}

func (m *Model) force(phi float64) float64 {
	return m.cfg.Voltage(phi) - m.cfg.EnergyGain
}

// actionTable is the cumulative trapezoidal integral of V-dE_s over one 2π
// window starting at the synchronous phase. Values at other phases reuse the
// window through the per-turn action, since only the dE_s term is not periodic.
type actionTable struct {
	origin  float64
	step    float64
	force   []float64
	acc     []float64
	perTurn float64
	eval    func(float64) float64
}

func newActionTable(f func(float64) float64, origin float64, n int) actionTable {
	t := actionTable{
		origin: origin,
		step:   2 * math.Pi / float64(n),
		force:  make([]float64, n+1),
		acc:    make([]float64, n+1),
		eval:   f,
	}
	for i := range t.force {
		t.force[i] = f(origin + float64(i)*t.step)
	}
	for i := 1; i <= n; i++ {
		t.acc[i] = t.acc[i-1] + 0.5*(t.force[i-1]+t.force[i])*t.step
	}
	t.perTurn = t.acc[n]
	return t
}

// at returns ∫_{origin}^{phi} (V - dE_s).
func (t actionTable) at(phi float64) float64 {
	x := phi - t.origin
	turns := math.Floor(x / (2 * math.Pi))
	r := x - turns*2*math.Pi
	n := len(t.acc) - 1
	i := int(r / t.step)
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	dx := r - float64(i)*t.step
	partial := t.acc[i]
	if dx != 0 {
		partial += 0.5 * (t.force[i] + t.eval(phi)) * dx
	}
	return turns*t.perTurn + partial
}
