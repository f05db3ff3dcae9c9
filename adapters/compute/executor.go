package compute

import (
	"fmt"
	"runtime"
	"strings"

	"mcprice/internal"
	"mcprice/internal/errors"
	"mcprice/ports"
)

// Strategy names
const (
	StrategySerial   = "serial"
	StrategyParallel = "parallel"
	StrategyGrid     = "grid"
)

// Strategies lists every strategy in a stable order
func Strategies() []string {
	return []string{StrategySerial, StrategyParallel, StrategyGrid}
}

// Defaults for Options fields left at zero
const (
	DefaultChunkSize       = 1 << 16
	DefaultThreadsPerBlock = 256
)

// Options tunes the executors. Zero values select defaults.
type Options struct {
	// Workers bounds CPU parallelism (pool workers, resident grid blocks
	// and reduction goroutines). Defaults to GOMAXPROCS.
	Workers int

	// ChunkSize is the number of consecutive paths a pool worker takes
	ChunkSize int

	// ThreadsPerBlock is the grid's block size
	ThreadsPerBlock int

	// ReduceBlock is the partition length of the parallel reduction
	ReduceBlock int

	// MaxBufferBytes caps the payoff buffer footprint; <= 0 disables it
	MaxBufferBytes int64

	Logger *internal.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ThreadsPerBlock <= 0 {
		o.ThreadsPerBlock = DefaultThreadsPerBlock
	}
	if o.ReduceBlock <= 0 {
		o.ReduceBlock = DefaultReduceBlock
	}
	if o.Logger == nil {
		o.Logger = internal.NewNopLogger()
	}
	return o
}

// New returns the executor for a strategy name
func New(strategy string, opts Options) (ports.Executor, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategySerial:
		return NewSerial(opts), nil
	case StrategyParallel:
		return NewPool(opts), nil
	case StrategyGrid:
		return NewGridExecutor(opts), nil
	}
	return nil, errors.InvalidArgument("unknown strategy %q, expected one of %s", strategy, strings.Join(Strategies(), ", "))
}

func checkJob(job ports.Job) (int, error) {
	n := job.Params.NumPaths()
	if n <= 0 {
		return 0, errors.InvalidArgument("numPaths must be positive, got %d", n)
	}
	if job.State == nil {
		return 0, errors.InternalError("job has no random state")
	}
	if job.State.NumPaths() != n {
		return 0, errors.InternalError(fmt.Sprintf("random state holds %d streams for %d paths", job.State.NumPaths(), n))
	}
	return n, nil
}
