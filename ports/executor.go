package ports

import (
	"context"

	"mcprice/domain/option"
	"mcprice/domain/stage"
)

// PhaseFunc is told when an executor enters a pipeline phase. A non-nil
// error aborts the job.
type PhaseFunc func(stage.StageName) error

// Job is the input of the per-path phase
type Job struct {
	Params option.SimulationParameters
	State  RNGState

	// Phase is optional
	Phase PhaseFunc
}

// Enter reports a phase change to the job's PhaseFunc, if any
func (j Job) Enter(s stage.StageName) error {
	if j.Phase == nil {
		return nil
	}
	return j.Phase(s)
}

// Executor runs the per-path phase of a job over all path indices, waits
// for every path to finish, then reduces the payoffs. Implementations differ
// only in how the identical per-path logic is scheduled.
//
// Execute enters StageGenerate before allocating payoff buffers,
// StageEvaluate before waiting on the per-path barrier and StageReduce
// before summing.
type Executor interface {
	// Name identifies the strategy in reports and fingerprints
	Name() string

	// BatchSize is the worker batch size the strategy was configured with
	BatchSize() int

	// Workers is the degree of CPU parallelism
	Workers() int

	// Execute returns the reduced payoff moments. On error nothing is returned.
	Execute(ctx context.Context, job Job) (option.PayoffMoments, error)
}
