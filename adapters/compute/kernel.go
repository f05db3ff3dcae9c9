package compute

import (
	"context"

	"mcprice/domain/option"
	"mcprice/ports"
)

// cancellation is polled once per this many paths
const cancelCheckInterval = 1 << 14

// pathKernel is the per-path logic every strategy runs: draw, evolve,
// evaluate, store into slot i.
type pathKernel[T Element] struct {
	model  option.PathModel
	strike float64
	calls  []T
	puts   []T
}

func newPathKernel[T Element](p option.SimulationParameters, calls, puts *ComputeBuffer[T]) *pathKernel[T] {
	return &pathKernel[T]{
		model:  p.Model(),
		strike: p.Strike(),
		calls:  calls.Slots(),
		puts:   puts.Slots(),
	}
}

func (k *pathKernel[T]) run(stream ports.NormalStream, i int) {
	st := k.model.TerminalPrice(stream.Draw(i))
	k.calls[i] = T(option.CallPayoff(st, k.strike))
	k.puts[i] = T(option.PutPayoff(st, k.strike))
}

// runRange evaluates paths [lo, hi)
func (k *pathKernel[T]) runRange(ctx context.Context, stream ports.NormalStream, lo, hi int) error {
	for i := lo; i < hi; i++ {
		if (i-lo)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		k.run(stream, i)
	}
	return nil
}
