// Package testkit provides deterministic random states and fixtures for
// pricing tests.
package testkit

import (
	"github.com/stretchr/testify/mock"

	"mcprice/domain/option"
	"mcprice/internal/errors"
	"mcprice/ports"
)

// FixedRNG hands out states whose draws come from a fixed function of the
// path index. It makes kernels and executors checkable by hand.
type FixedRNG struct {
	Draw func(i int) float64
}

// ConstantRNG returns a manager whose every draw is z
func ConstantRNG(z float64) *FixedRNG {
	return &FixedRNG{Draw: func(int) float64 { return z }}
}

// SequenceRNG returns a manager that draws zs[i] for path i
func SequenceRNG(zs ...float64) *FixedRNG {
	return &FixedRNG{Draw: func(i int) float64 { return zs[i] }}
}

// Init mirrors the real manager's validation
func (f *FixedRNG) Init(seed uint64, numPaths int) (ports.RNGState, error) {
	if numPaths <= 0 {
		return nil, errors.InvalidArgument("numPaths must be positive, got %d", numPaths)
	}
	return &fixedState{draw: f.Draw, n: numPaths}, nil
}

type fixedState struct {
	draw func(i int) float64
	n    int
}

func (s *fixedState) NumPaths() int { return s.n }

func (s *fixedState) Stream() ports.NormalStream { return fixedStream{draw: s.draw} }

type fixedStream struct {
	draw func(i int) float64
}

func (s fixedStream) Draw(i int) float64 { return s.draw(i) }

// MockRNG is a testify mock of ports.RandomStateManager
type MockRNG struct {
	mock.Mock
}

func (m *MockRNG) Init(seed uint64, numPaths int) (ports.RNGState, error) {
	args := m.Called(seed, numPaths)
	state, _ := args.Get(0).(ports.RNGState)
	return state, args.Error(1)
}

// Reference returns the reference contract (S=42, K=40, T=0.5, r=0.1,
// sigma=0.2) with n paths, panicking on invalid n
func Reference(n int) option.SimulationParameters {
	p, err := option.ReferenceScenario(n)
	if err != nil {
		panic(err)
	}
	return p
}

// Contract builds parameters for tests, panicking on invalid input
func Contract(spot, strike, maturity, rate, volatility float64, n int) option.SimulationParameters {
	p, err := option.NewParameters(spot, strike, maturity, rate, volatility, n)
	if err != nil {
		panic(err)
	}
	return p
}

// Black-Scholes values of the reference contract
const (
	ReferenceCall = 4.759422
	ReferencePut  = 0.808599
)
