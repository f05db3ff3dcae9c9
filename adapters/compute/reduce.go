package compute

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mcprice/domain/option"
)

const (
	pairwiseBase = 128

	// DefaultReduceBlock is the partition length of the parallel reduction.
	// Partition boundaries never depend on the worker count, so a reduction
	// is bit-identical for any degree of parallelism.
	DefaultReduceBlock = 1 << 16
)

// pairwise returns the sum and the sum of squares of x in float64. Rounding
// error grows with log2(len(x)) rather than len(x).
func pairwise[T Element](x []T) (sum, sumSq float64) {
	if len(x) <= pairwiseBase {
		for _, v := range x {
			f := float64(v)
			sum += f
			sumSq += f * f
		}
		return sum, sumSq
	}
	mid := len(x) / 2
	ls, lq := pairwise(x[:mid])
	rs, rq := pairwise(x[mid:])
	return ls + rs, lq + rq
}

// PairwiseSum sums x with a float64 accumulator using cascade summation
func PairwiseSum[T Element](x []T) float64 {
	s, _ := pairwise(x)
	return s
}

// Moments reduces both payoff arrays sequentially
func Moments[T Element](calls, puts []T) option.PayoffMoments {
	cs, cq := pairwise(calls)
	ps, pq := pairwise(puts)
	return option.PayoffMoments{N: len(calls), CallSum: cs, CallSumSq: cq, PutSum: ps, PutSumSq: pq}
}

// BlockMoments reduces both payoff arrays in fixed blocks of length block,
// up to workers blocks at a time, then reduces the per-block partials
// pairwise in block order.
func BlockMoments[T Element](ctx context.Context, calls, puts []T, block, workers int) (option.PayoffMoments, error) {
	n := len(calls)
	if block <= 0 {
		block = DefaultReduceBlock
	}
	if workers < 1 {
		workers = 1
	}
	numBlocks := n / block
	if n%block != 0 {
		numBlocks++
	}

	callSum := make([]float64, numBlocks)
	callSq := make([]float64, numBlocks)
	putSum := make([]float64, numBlocks)
	putSq := make([]float64, numBlocks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for b := 0; b < numBlocks; b++ {
		lo := b * block
		hi := min(lo+block, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			callSum[b], callSq[b] = pairwise(calls[lo:hi])
			putSum[b], putSq[b] = pairwise(puts[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return option.PayoffMoments{}, err
	}

	return option.PayoffMoments{
		N:         n,
		CallSum:   PairwiseSum(callSum),
		CallSumSq: PairwiseSum(callSq),
		PutSum:    PairwiseSum(putSum),
		PutSumSq:  PairwiseSum(putSq),
	}, nil
}
