package app

import (
	"context"

	"mcprice/domain/option"
	"mcprice/internal"
	"mcprice/internal/errors"
	"mcprice/ports"
)

// StrategyDiff is the relative disagreement between two strategies
type StrategyDiff struct {
	A       string  `json:"a" yaml:"a"`
	B       string  `json:"b" yaml:"b"`
	CallRel float64 `json:"call_rel" yaml:"call_rel"`
	PutRel  float64 `json:"put_rel" yaml:"put_rel"`
}

// Comparison holds one report per strategy, all priced from the same seed
type Comparison struct {
	Reports []*PricingReport `json:"reports" yaml:"reports"`
	Diffs   []StrategyDiff   `json:"diffs" yaml:"diffs"`
}

// MaxRelativeDiff is the largest call or put disagreement over all pairs
func (c *Comparison) MaxRelativeDiff() float64 {
	var worst float64
	for _, d := range c.Diffs {
		worst = max(worst, d.CallRel, d.PutRel)
	}
	return worst
}

// Compare prices params with every executor in turn. Runs share the seed,
// so the estimates differ only by storage precision and summation order.
func Compare(ctx context.Context, rngManager ports.RandomStateManager, executors []ports.Executor, params option.SimulationParameters, seed uint64, logger *internal.Logger) (*Comparison, error) {
	if len(executors) == 0 {
		return nil, errors.InvalidArgument("no strategies to compare")
	}

	cmp := &Comparison{}
	for _, executor := range executors {
		report, err := NewPricingService(rngManager, executor, logger).Price(ctx, params, seed)
		if err != nil {
			return nil, errors.Wrapf(err, "compare %s", executor.Name())
		}
		cmp.Reports = append(cmp.Reports, report)
	}

	for i := 0; i < len(cmp.Reports); i++ {
		for j := i + 1; j < len(cmp.Reports); j++ {
			a, b := cmp.Reports[i], cmp.Reports[j]
			cmp.Diffs = append(cmp.Diffs, StrategyDiff{
				A:       a.Manifest.Strategy,
				B:       b.Manifest.Strategy,
				CallRel: option.RelativeError(b.Result.CallPrice, a.Result.CallPrice),
				PutRel:  option.RelativeError(b.Result.PutPrice, a.Result.PutPrice),
			})
		}
	}
	return cmp, nil
}
