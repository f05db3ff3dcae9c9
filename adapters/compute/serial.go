package compute

import (
	"context"

	"mcprice/domain/option"
	"mcprice/domain/stage"
	"mcprice/internal"
	"mcprice/ports"
)

// Serial runs every path in one loop on the calling goroutine
type Serial struct {
	maxBytes int64
	logger   *internal.Logger
}

// NewSerial creates the sequential executor
func NewSerial(opts Options) *Serial {
	opts = opts.withDefaults()
	return &Serial{maxBytes: opts.MaxBufferBytes, logger: opts.Logger}
}

func (s *Serial) Name() string { return StrategySerial }

// BatchSize is zero: the serial loop has no batches
func (s *Serial) BatchSize() int { return 0 }

func (s *Serial) Workers() int { return 1 }

func (s *Serial) Execute(ctx context.Context, job ports.Job) (option.PayoffMoments, error) {
	n, err := checkJob(job)
	if err != nil {
		return option.PayoffMoments{}, err
	}
	if _, err := Footprint[float64](n, 1, s.maxBytes); err != nil {
		return option.PayoffMoments{}, err
	}
	if err := job.Enter(stage.StageGenerate); err != nil {
		return option.PayoffMoments{}, err
	}

	calls := NewHostBuffer[float64](n)
	puts := NewHostBuffer[float64](n)
	defer calls.Release()
	defer puts.Release()

	s.logger.Debug("serial: %d paths", n)
	kernel := newPathKernel(job.Params, calls, puts)
	if err := job.Enter(stage.StageEvaluate); err != nil {
		return option.PayoffMoments{}, err
	}
	if err := kernel.runRange(ctx, job.State.Stream(), 0, n); err != nil {
		return option.PayoffMoments{}, err
	}

	if err := job.Enter(stage.StageReduce); err != nil {
		return option.PayoffMoments{}, err
	}
	return Moments(calls.Slots(), puts.Slots()), nil
}
