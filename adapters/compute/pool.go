package compute

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mcprice/domain/option"
	"mcprice/domain/stage"
	"mcprice/internal"
	"mcprice/ports"
)

// Pool splits the path range into fixed chunks and runs them on a bounded
// set of goroutines. Chunk assignment does not affect the result: each path
// writes only its own slot and the reduction partitions are fixed.
type Pool struct {
	workers     int
	chunkSize   int
	reduceBlock int
	maxBytes    int64
	logger      *internal.Logger
}

// NewPool creates the CPU worker pool executor
func NewPool(opts Options) *Pool {
	opts = opts.withDefaults()
	return &Pool{
		workers:     opts.Workers,
		chunkSize:   opts.ChunkSize,
		reduceBlock: opts.ReduceBlock,
		maxBytes:    opts.MaxBufferBytes,
		logger:      opts.Logger,
	}
}

func (p *Pool) Name() string { return StrategyParallel }

func (p *Pool) BatchSize() int { return p.chunkSize }

// Workers returns the pool size
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) Execute(ctx context.Context, job ports.Job) (option.PayoffMoments, error) {
	n, err := checkJob(job)
	if err != nil {
		return option.PayoffMoments{}, err
	}
	if _, err := Footprint[float64](n, 1, p.maxBytes); err != nil {
		return option.PayoffMoments{}, err
	}
	if err := job.Enter(stage.StageGenerate); err != nil {
		return option.PayoffMoments{}, err
	}

	calls := NewHostBuffer[float64](n)
	puts := NewHostBuffer[float64](n)
	defer calls.Release()
	defer puts.Release()

	kernel := newPathKernel(job.Params, calls, puts)
	p.logger.Debug("pool: %d paths, %d workers, chunk %d", n, p.workers, p.chunkSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for lo := 0; lo < n; lo += p.chunkSize {
		hi := min(lo+p.chunkSize, n)
		g.Go(func() error {
			return kernel.runRange(gctx, job.State.Stream(), lo, hi)
		})
	}
	if err := job.Enter(stage.StageEvaluate); err != nil {
		_ = g.Wait()
		return option.PayoffMoments{}, err
	}
	// barrier: no payoff is read before every chunk has been written
	if err := g.Wait(); err != nil {
		return option.PayoffMoments{}, err
	}

	if err := job.Enter(stage.StageReduce); err != nil {
		return option.PayoffMoments{}, err
	}
	return BlockMoments(ctx, calls.Slots(), puts.Slots(), p.reduceBlock, p.workers)
}
