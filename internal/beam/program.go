package beam

import (
	"fmt"
	"sort"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
	"github.com/san-kum/longsim/internal/tracking"
)

// Change is one entry of an RF program: cfg takes effect at the start of
// the first turn executed once the turn counter has reached Turn.
type Change struct {
	Turn   int       `yaml:"turn" json:"turn"`
	Config rf.Config `yaml:"rf" json:"rf"`
}

// rfState is a fully derived RF setting, ready to be swapped in.
type rfState struct {
	model   *bucket.Model
	tracker *tracking.Tracker
}

type pending struct {
	turn int
	seq  int
	rfState
}

// program is the queue of scheduled changes ordered by turn, then by the
// order they were scheduled in.
type program struct {
	queue []pending
	seq   int
}

func (p *program) add(turn int, s rfState) {
	p.queue = append(p.queue, pending{turn: turn, seq: p.seq, rfState: s})
	p.seq++
	sort.SliceStable(p.queue, func(i, j int) bool {
		return p.queue[i].turn < p.queue[j].turn
	})
}

// due returns the setting in force for a turn starting at counter turn and
// how many queued changes it consumes. ok is false when nothing is due.
func (p *program) due(turn int) (s rfState, n int, ok bool) {
	for n < len(p.queue) && p.queue[n].turn <= turn {
		s = p.queue[n].rfState
		n++
	}
	return s, n, n > 0
}

func (p *program) pop(n int) {
	p.queue = append(p.queue[:0], p.queue[n:]...)
}

func (p *program) turns() []int {
	out := make([]int, len(p.queue))
	for i, q := range p.queue {
		out[i] = q.turn
	}
	return out
}

func derive(cfg rf.Config, machine rf.Machine, opts bucket.Options) (rfState, error) {
	m, err := bucket.New(cfg, machine, opts)
	if err != nil {
		return rfState{}, err
	}
	tr, err := tracking.FromModel(m)
	if err != nil {
		return rfState{}, err
	}
	return rfState{model: m, tracker: tr}, nil
}

// ScheduleRFChange validates cfg now and queues it for the start of the
// first turn executed once Turn() >= atTurn. A turn at or before the current
// counter applies on the next turn.
func (b *Beam) ScheduleRFChange(cfg rf.Config, atTurn int) error {
	if atTurn < 0 {
		return fmt.Errorf("%w: change scheduled at negative turn %d", rf.ErrConfiguration, atTurn)
	}
	s, err := derive(cfg, b.machine, b.opts.Bucket)
	if err != nil {
		return fmt.Errorf("schedule rf change at turn %d: %w", atTurn, err)
	}
	b.program.add(atTurn, s)
	return nil
}

// LoadProgram schedules every change in order. It stops at the first
// invalid entry; entries before it stay scheduled.
func (b *Beam) LoadProgram(changes []Change) error {
	for i, c := range changes {
		if err := b.ScheduleRFChange(c.Config, c.Turn); err != nil {
			return fmt.Errorf("rf program entry %d: %w", i, err)
		}
	}
	return nil
}

// Scheduled returns the turns of the changes still waiting to apply.
func (b *Beam) Scheduled() []int {
	return b.program.turns()
}
