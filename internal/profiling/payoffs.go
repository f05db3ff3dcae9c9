// Package profiling summarizes the distribution of simulated payoffs.
package profiling

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"mcprice/domain/option"
	"mcprice/internal/errors"
	"mcprice/ports"
)

// PayoffProfile describes an evenly strided sample of paths from a run
type PayoffProfile struct {
	SampleSize  int          `json:"sample_size" yaml:"sample_size"`
	InTheMoney  float64      `json:"in_the_money" yaml:"in_the_money"`
	Call        Distribution `json:"call" yaml:"call"`
	Put         Distribution `json:"put" yaml:"put"`

	// nil when the spot is zero and log S_T is undefined
	LogTerminal *LogTerminalProfile `json:"log_terminal,omitempty" yaml:"log_terminal,omitempty"`
}

// LogTerminalProfile compares sampled log S_T against its GBM law, a normal
// with the expected mean and standard deviation
type LogTerminalProfile struct {
	Observed       Distribution `json:"observed" yaml:"observed"`
	ExpectedMean   float64      `json:"expected_mean" yaml:"expected_mean"`
	ExpectedStdDev float64      `json:"expected_std_dev" yaml:"expected_std_dev"`
}

// ProfilePayoffs re-evaluates up to sample paths of the run described by
// params and state and analyzes their payoffs. The sampled paths are the
// same ones the executor priced, since draws depend only on the index.
func ProfilePayoffs(params option.SimulationParameters, state ports.RNGState, sample int) (PayoffProfile, error) {
	n := state.NumPaths()
	if sample <= 0 {
		return PayoffProfile{}, errors.InvalidArgument("profile sample must be positive, got %d", sample)
	}
	m := min(sample, n)

	model := params.Model()
	stream := state.Stream()
	calls := make([]float64, m)
	puts := make([]float64, m)
	logs := make([]float64, 0, m)
	for k := 0; k < m; k++ {
		i := int(uint64(k) * uint64(n) / uint64(m))
		st := model.TerminalPrice(stream.Draw(i))
		calls[k] = option.CallPayoff(st, params.Strike())
		puts[k] = option.PutPayoff(st, params.Strike())
		if st > 0 {
			logs = append(logs, math.Log(st))
		}
	}

	analyzer := NewDistributionAnalyzer()
	profile := PayoffProfile{
		SampleSize: m,
		InTheMoney: float64(floats.Count(func(v float64) bool { return v > 0 }, calls)) / float64(m),
	}

	var err error
	if profile.Call, err = analyzer.AnalyzeDistribution(calls); err != nil {
		return PayoffProfile{}, errors.Wrap(err, "call payoff profile")
	}
	if profile.Put, err = analyzer.AnalyzeDistribution(puts); err != nil {
		return PayoffProfile{}, errors.Wrap(err, "put payoff profile")
	}
	if params.Spot() <= 0 || len(logs) == 0 {
		return profile, nil
	}

	observed, err := analyzer.AnalyzeDistribution(logs)
	if err != nil {
		return PayoffProfile{}, errors.Wrap(err, "terminal price profile")
	}
	profile.LogTerminal = &LogTerminalProfile{
		Observed:       observed,
		ExpectedMean:   math.Log(params.Spot()) + model.Drift(),
		ExpectedStdDev: model.Diffusion(),
	}
	return profile, nil
}
