package app

import (
	"math"
	"time"

	"mcprice/domain/option"
	"mcprice/domain/run"
	"mcprice/domain/stage"
	"mcprice/internal/profiling"
)

// Contract is the serializable view of the simulation parameters
type Contract struct {
	Spot       float64 `json:"spot" yaml:"spot"`
	Strike     float64 `json:"strike" yaml:"strike"`
	Maturity   float64 `json:"maturity" yaml:"maturity"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	NumPaths   int     `json:"num_paths" yaml:"num_paths"`
}

// NewContract copies params into a Contract
func NewContract(p option.SimulationParameters) Contract {
	return Contract{
		Spot:       p.Spot(),
		Strike:     p.Strike(),
		Maturity:   p.Maturity(),
		Rate:       p.Rate(),
		Volatility: p.Volatility(),
		NumPaths:   p.NumPaths(),
	}
}

// PricingReport is everything one run produced
type PricingReport struct {
	Contract  Contract                 `json:"contract" yaml:"contract"`
	Result    option.AggregateResult   `json:"result" yaml:"result"`
	Reference option.BlackScholesPrice `json:"black_scholes" yaml:"black_scholes"`
	Manifest  *run.Manifest            `json:"manifest" yaml:"manifest"`
	Timings   []stage.Timing           `json:"timings" yaml:"timings"`
	Elapsed   time.Duration            `json:"elapsed_ns" yaml:"elapsed"`
	Profile   *profiling.PayoffProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// CallError is the absolute difference to the Black-Scholes call
func (r *PricingReport) CallError() float64 {
	return math.Abs(r.Result.CallPrice - r.Reference.Call)
}

// PutError is the absolute difference to the Black-Scholes put
func (r *PricingReport) PutError() float64 {
	return math.Abs(r.Result.PutPrice - r.Reference.Put)
}

