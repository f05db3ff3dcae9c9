package app

import (
	"context"
	"math"
	"time"

	"mcprice/adapters/compute"
	"mcprice/adapters/rng"
	"mcprice/domain/core"
	"mcprice/domain/option"
	"mcprice/domain/run"
	"mcprice/domain/stage"
	"mcprice/internal"
	"mcprice/internal/errors"
	"mcprice/internal/profiling"
	"mcprice/ports"
)

// PricingService runs one pricing job at a time through the pipeline
// phases. It holds no per-run state and may be shared between goroutines.
type PricingService struct {
	rngManager    ports.RandomStateManager
	executor      ports.Executor
	profileSample int
	logger        *internal.Logger
}

// NewPricingService creates a pricing service
func NewPricingService(rngManager ports.RandomStateManager, executor ports.Executor, logger *internal.Logger) *PricingService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &PricingService{
		rngManager: rngManager,
		executor:   executor,
		logger:     logger,
	}
}

// WithProfile returns a copy that also profiles up to sample paths per run
func (s *PricingService) WithProfile(sample int) *PricingService {
	out := *s
	out.profileSample = sample
	return &out
}

// Strategy returns the executor's strategy name
func (s *PricingService) Strategy() string {
	return s.executor.Name()
}

// Price runs init, generate, evaluate, reduce and discount for params.
// Any failure aborts the run and no partial result is returned.
func (s *PricingService) Price(ctx context.Context, params option.SimulationParameters, seed uint64) (*PricingReport, error) {
	started := time.Now()
	machine := stage.NewMachine()

	report, err := s.price(ctx, machine, params, seed)
	if err != nil {
		machine.Fail(err)
		if core.IsValidationError(err) {
			s.logger.Warn("%s run rejected in %s: %v", s.executor.Name(), machine.Current(), err)
		} else {
			s.logger.Error("%s run failed in %s: %v", s.executor.Name(), machine.Current(), err)
		}
		return nil, err
	}

	report.Timings = machine.Timings()
	report.Elapsed = time.Since(started)
	s.logger.Info("%s run %s: %d paths, call %.6f, put %.6f in %s",
		report.Manifest.Strategy, report.Manifest.RunID, params.NumPaths(),
		report.Result.CallPrice, report.Result.PutPrice, report.Elapsed)
	return report, nil
}

func (s *PricingService) price(ctx context.Context, machine *stage.Machine, params option.SimulationParameters, seed uint64) (*PricingReport, error) {
	advance := func(next stage.StageName) error {
		if err := machine.Advance(next); err != nil {
			return errors.Wrap(err, "pipeline")
		}
		s.logger.Debug("%s: entered %s", s.executor.Name(), next)
		return nil
	}

	if err := advance(stage.StageInit); err != nil {
		return nil, err
	}
	n := params.NumPaths()
	state, err := s.rngManager.Init(seed, n)
	if err != nil {
		return nil, errors.Wrap(err, "random state")
	}
	manifest := run.NewManifest(params, seed, s.executor.Name(), s.executor.BatchSize(), s.executor.Workers())

	moments, err := s.executor.Execute(ctx, ports.Job{Params: params, State: state, Phase: advance})
	if err != nil {
		return nil, errors.Wrapf(err, "%s executor", s.executor.Name())
	}
	if moments.N != n {
		return nil, errors.InternalError("reduction covered a different number of paths than requested")
	}

	if err := advance(stage.StageDiscount); err != nil {
		return nil, err
	}
	result := option.Discount(moments, params.Rate(), params.Maturity())
	if !finite(result.CallPrice) || !finite(result.PutPrice) {
		return nil, errors.NumericDegenerate("estimate is not finite (call %v, put %v)", result.CallPrice, result.PutPrice)
	}

	report := &PricingReport{
		Contract:  NewContract(params),
		Result:    result,
		Reference: option.BlackScholes(params),
		Manifest:  manifest,
	}

	if s.profileSample > 0 {
		profile, err := profiling.ProfilePayoffs(params, state, s.profileSample)
		if err != nil {
			return nil, errors.Wrap(err, "payoff profile")
		}
		report.Profile = &profile
	}

	if err := advance(stage.StageDone); err != nil {
		return nil, err
	}
	return report, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Price estimates European call and put prices with the default grid
// executor and configuration. It is the programmatic entry point for
// callers that do not need reports.
func Price(spot, strike, maturity, rate, volatility float64, numPaths int, seed uint64) (call, put float64, err error) {
	params, err := option.NewParameters(spot, strike, maturity, rate, volatility, numPaths)
	if err != nil {
		return 0, 0, err
	}
	service := NewPricingService(rng.NewManager(), compute.NewGridExecutor(compute.Options{}), nil)
	report, err := service.Price(context.Background(), params, seed)
	if err != nil {
		return 0, 0, err
	}
	return report.Result.CallPrice, report.Result.PutPrice, nil
}
