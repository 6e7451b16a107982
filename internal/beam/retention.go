package beam

// Snapshot is a copy of the ensemble after a committed turn.
type Snapshot struct {
	Turn   int       `json:"turn"`
	Phase  float64   `json:"phi_s"`
	Phi    []float64 `json:"phi"`
	DeltaE []float64 `json:"delta_e"`
}

type retentionMode int

const (
	retainNone retentionMode = iota
	retainAll
	retainEvery
	retainLast
)

// Retention selects which turns end up in the beam history. The zero value
// keeps nothing.
type Retention struct {
	mode retentionMode
	n    int
}

func RetainNone() Retention { return Retention{mode: retainNone} }
func RetainAll() Retention  { return Retention{mode: retainAll} }

// RetainEvery keeps turn 0 and every n-th turn after it.
func RetainEvery(n int) Retention {
	if n < 1 {
		n = 1
	}
	return Retention{mode: retainEvery, n: n}
}

// RetainLast keeps the n most recent snapshots.
func RetainLast(n int) Retention {
	if n < 1 {
		return RetainNone()
	}
	return Retention{mode: retainLast, n: n}
}

func (r Retention) String() string {
	switch r.mode {
	case retainAll:
		return "all"
	case retainEvery:
		return "every"
	case retainLast:
		return "last"
	default:
		return "none"
	}
}

func (r Retention) wants(turn int) bool {
	switch r.mode {
	case retainAll, retainLast:
		return true
	case retainEvery:
		return turn%r.n == 0
	default:
		return false
	}
}

func (r Retention) record(history []Snapshot, s Snapshot) []Snapshot {
	if !r.wants(s.Turn) {
		return history
	}
	history = append(history, s)
	if r.mode == retainLast && len(history) > r.n {
		drop := len(history) - r.n
		copy(history, history[drop:])
		clear(history[r.n:])
		history = history[:r.n]
	}
	return history
}
