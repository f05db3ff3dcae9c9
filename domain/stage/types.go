package stage

import (
	"fmt"
	"time"

	"mcprice/domain/core"
)

// StageName represents a named phase of a pricing run
type StageName string

// Pipeline phases, in execution order
const (
	StageInit     StageName = "init"     // parameters validated, RNG state built
	StageGenerate StageName = "generate" // buffers allocated, per-path draws launched
	StageEvaluate StageName = "evaluate" // per-path payoffs written, barrier reached
	StageReduce   StageName = "reduce"   // payoff moments summed
	StageDiscount StageName = "discount" // present value computed
	StageDone     StageName = "done"
)

// order lists the only legal sequence; a run never repeats or skips a phase
var order = []StageName{StageInit, StageGenerate, StageEvaluate, StageReduce, StageDiscount, StageDone}

// Timing records how long a run spent in one phase
type Timing struct {
	Stage    StageName     `json:"stage" yaml:"stage"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
}

// Machine tracks a one-shot run through the pipeline phases. It is owned by
// a single run and is not safe for concurrent use.
type Machine struct {
	current StageName
	entered time.Time
	timings []Timing
	failed  error
	now     func() time.Time
}

// NewMachine creates a machine positioned before Init
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// Current returns the phase the run is in, or "" before Init
func (m *Machine) Current() StageName {
	return m.current
}

// Advance moves to next, which must be the phase immediately after the current one
func (m *Machine) Advance(next StageName) error {
	if m.failed != nil {
		return fmt.Errorf("%w: run already failed in %s", core.ErrIllegalTransition, m.current)
	}
	want := m.expectedNext()
	if want == "" || next != want {
		return fmt.Errorf("%w: %q -> %q (expected %q)", core.ErrIllegalTransition, m.current, next, want)
	}

	now := m.now()
	if m.current != "" {
		m.timings = append(m.timings, Timing{Stage: m.current, Duration: now.Sub(m.entered)})
	}
	m.current = next
	m.entered = now
	return nil
}

// Fail marks the run as aborted in the current phase; no further transitions are allowed
func (m *Machine) Fail(err error) {
	if m.failed == nil {
		m.failed = err
	}
}

// Err returns the error that aborted the run, if any
func (m *Machine) Err() error {
	return m.failed
}

// Done reports whether the run reached the terminal phase
func (m *Machine) Done() bool {
	return m.current == StageDone
}

// Timings returns the completed phase durations in order
func (m *Machine) Timings() []Timing {
	out := make([]Timing, len(m.timings))
	copy(out, m.timings)
	return out
}

func (m *Machine) expectedNext() StageName {
	if m.current == "" {
		return order[0]
	}
	for i, s := range order {
		if s == m.current && i+1 < len(order) {
			return order[i+1]
		}
	}
	return ""
}

// Order returns the phase sequence
func Order() []StageName {
	out := make([]StageName, len(order))
	copy(out, order)
	return out
}
