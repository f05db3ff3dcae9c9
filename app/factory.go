package app

import (
	"mcprice/adapters/compute"
	"mcprice/adapters/rng"
	"mcprice/internal"
	"mcprice/internal/config"
	"mcprice/ports"
)

// NewFromConfig builds a pricing service for the configured strategy
func NewFromConfig(cfg *config.Config, logger *internal.Logger) (*PricingService, error) {
	opts := cfg.ComputeOptions()
	opts.Logger = logger
	executor, err := compute.New(cfg.Pricing.Strategy, opts)
	if err != nil {
		return nil, err
	}
	return NewPricingService(rng.NewManager(), executor, logger), nil
}

// ExecutorsFromConfig builds one executor per known strategy with the
// configured tuning
func ExecutorsFromConfig(cfg *config.Config, logger *internal.Logger) ([]ports.Executor, error) {
	opts := cfg.ComputeOptions()
	opts.Logger = logger

	var executors []ports.Executor
	for _, name := range compute.Strategies() {
		e, err := compute.New(name, opts)
		if err != nil {
			return nil, err
		}
		executors = append(executors, e)
	}
	return executors, nil
}
