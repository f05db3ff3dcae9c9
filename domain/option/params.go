package option

import (
	"fmt"
	"math"

	"mcprice/domain/core"
	"mcprice/internal/errors"
)

// DefaultNumPaths is the path count of the reference run
const DefaultNumPaths = 100_000_000

// SimulationParameters holds the inputs of one pricing run. Values are
// fixed at construction; use NewParameters so they are validated.
type SimulationParameters struct {
	spot       float64
	strike     float64
	maturity   float64
	rate       float64
	volatility float64
	numPaths   int
}

// NewParameters validates and builds SimulationParameters. The path count is
// checked first so a bad count is always reported as INVALID_ARGUMENT.
func NewParameters(spot, strike, maturity, rate, volatility float64, numPaths int) (SimulationParameters, error) {
	if numPaths <= 0 {
		return SimulationParameters{}, errors.InvalidArgument("numPaths must be > 0, got %d", numPaths)
	}

	checks := []struct {
		name        string
		value       float64
		nonNegative bool
	}{
		{"S", spot, true},
		{"K", strike, true},
		{"T", maturity, true},
		{"r", rate, false},
		{"sigma", volatility, true},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return SimulationParameters{}, degenerate(c.name, c.value, "must be finite")
		}
		if c.nonNegative && c.value < 0 {
			return SimulationParameters{}, degenerate(c.name, c.value, "must be >= 0")
		}
	}

	return SimulationParameters{
		spot:       spot,
		strike:     strike,
		maturity:   maturity,
		rate:       rate,
		volatility: volatility,
		numPaths:   numPaths,
	}, nil
}

func degenerate(field string, value float64, reason string) error {
	return errors.WithCode(errors.CodeNumericDegenerate, core.NewDegenerateError(field, value, reason))
}

// ReferenceScenario returns the fixed scenario S=42, K=40, T=0.5, r=0.1, sigma=0.2
func ReferenceScenario(numPaths int) (SimulationParameters, error) {
	return NewParameters(42, 40, 0.5, 0.1, 0.2, numPaths)
}

func (p SimulationParameters) Spot() float64       { return p.spot }
func (p SimulationParameters) Strike() float64     { return p.strike }
func (p SimulationParameters) Maturity() float64   { return p.maturity }
func (p SimulationParameters) Rate() float64       { return p.rate }
func (p SimulationParameters) Volatility() float64 { return p.volatility }
func (p SimulationParameters) NumPaths() int       { return p.numPaths }

// WithNumPaths returns a copy with a different path count
func (p SimulationParameters) WithNumPaths(numPaths int) (SimulationParameters, error) {
	return NewParameters(p.spot, p.strike, p.maturity, p.rate, p.volatility, numPaths)
}

// Model returns the per-path price model for these parameters
func (p SimulationParameters) Model() PathModel {
	return NewPathModel(p.spot, p.rate, p.volatility, p.maturity)
}

// Canonical renders the parameters in a stable form for hashing
func (p SimulationParameters) Canonical() string {
	return fmt.Sprintf("S=%v|K=%v|T=%v|r=%v|sigma=%v|n=%d",
		p.spot, p.strike, p.maturity, p.rate, p.volatility, p.numPaths)
}
