package compute

import (
	"context"

	"mcprice/domain/option"
	"mcprice/domain/stage"
	"mcprice/internal"
	"mcprice/ports"
)

// GridExecutor runs one thread per path on a Device. Payoffs are written to
// single-precision device buffers, synchronized, transferred to the host and
// reduced there in float64.
type GridExecutor struct {
	device          *Device
	threadsPerBlock int
	reduceBlock     int
	workers         int
	maxBytes        int64
	logger          *internal.Logger
}

// NewGridExecutor creates the grid executor. Options.Workers sets the
// number of resident blocks.
func NewGridExecutor(opts Options) *GridExecutor {
	opts = opts.withDefaults()
	return &GridExecutor{
		device:          NewDevice(opts.Workers),
		threadsPerBlock: opts.ThreadsPerBlock,
		reduceBlock:     opts.ReduceBlock,
		workers:         opts.Workers,
		maxBytes:        opts.MaxBufferBytes,
		logger:          opts.Logger,
	}
}

func (g *GridExecutor) Name() string { return StrategyGrid }

func (g *GridExecutor) BatchSize() int { return g.threadsPerBlock }

// Workers returns the number of resident blocks
func (g *GridExecutor) Workers() int { return g.workers }

func (g *GridExecutor) Execute(ctx context.Context, job ports.Job) (option.PayoffMoments, error) {
	n, err := checkJob(job)
	if err != nil {
		return option.PayoffMoments{}, err
	}
	// device buffers plus their host copies
	if _, err := Footprint[float32](n, 2, g.maxBytes); err != nil {
		return option.PayoffMoments{}, err
	}
	if err := job.Enter(stage.StageGenerate); err != nil {
		return option.PayoffMoments{}, err
	}

	devCalls := NewDeviceBuffer[float32](n)
	devPuts := NewDeviceBuffer[float32](n)
	defer devCalls.Release()
	defer devPuts.Release()

	geom := NewGeometry(n, g.threadsPerBlock)
	g.logger.Debug("grid: %d paths, %d blocks x %d threads (%d idle), %d resident",
		n, geom.Blocks, geom.ThreadsPerBlock, geom.Threads()-n, g.device.ResidentBlocks())

	kernel := newPathKernel(job.Params, devCalls, devPuts)
	launch := g.device.Launch(ctx, geom, func(block int) {
		stream := job.State.Stream()
		for thread := 0; thread < geom.ThreadsPerBlock; thread++ {
			i := geom.GlobalIndex(block, thread)
			if i >= n {
				// tail of the last block
				return
			}
			kernel.run(stream, i)
		}
	})
	if err := job.Enter(stage.StageEvaluate); err != nil {
		_ = launch.Synchronize()
		return option.PayoffMoments{}, err
	}
	if err := launch.Synchronize(); err != nil {
		return option.PayoffMoments{}, err
	}

	hostCalls, err := devCalls.CopyToHost()
	if err != nil {
		return option.PayoffMoments{}, err
	}
	hostPuts, err := devPuts.CopyToHost()
	if err != nil {
		return option.PayoffMoments{}, err
	}
	devCalls.Release()
	devPuts.Release()

	if err := job.Enter(stage.StageReduce); err != nil {
		return option.PayoffMoments{}, err
	}
	calls, err := hostCalls.Host()
	if err != nil {
		return option.PayoffMoments{}, err
	}
	puts, err := hostPuts.Host()
	if err != nil {
		return option.PayoffMoments{}, err
	}
	return BlockMoments(ctx, calls, puts, g.reduceBlock, g.workers)
}
