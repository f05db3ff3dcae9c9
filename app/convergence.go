package app

import (
	"context"
	"time"

	"mcprice/domain/option"
	"mcprice/internal/errors"
)

// ConvergencePoint is one path count of a convergence study
type ConvergencePoint struct {
	NumPaths   int           `json:"num_paths" yaml:"num_paths"`
	Call       float64       `json:"call" yaml:"call"`
	Put        float64       `json:"put" yaml:"put"`
	CallStdErr float64       `json:"call_std_err" yaml:"call_std_err"`
	PutStdErr  float64       `json:"put_std_err" yaml:"put_std_err"`
	CallRelErr float64       `json:"call_rel_err" yaml:"call_rel_err"`
	PutRelErr  float64       `json:"put_rel_err" yaml:"put_rel_err"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed"`
}

// ConvergenceSizes returns the powers of ten from 10^4 up to maxPaths. A
// maxPaths below 10^4 yields just maxPaths.
func ConvergenceSizes(maxPaths int) []int {
	if maxPaths <= 0 {
		return nil
	}
	var sizes []int
	for n := 10_000; n <= maxPaths; n *= 10 {
		sizes = append(sizes, n)
		if n > maxPaths/10 {
			break
		}
	}
	if len(sizes) == 0 {
		sizes = append(sizes, maxPaths)
	}
	return sizes
}

// Convergence prices params at each path count with the same seed and
// reports the relative error against Black-Scholes
func (s *PricingService) Convergence(ctx context.Context, params option.SimulationParameters, seed uint64, sizes []int) ([]ConvergencePoint, error) {
	if len(sizes) == 0 {
		return nil, errors.InvalidArgument("no path counts to study")
	}
	reference := option.BlackScholes(params)

	points := make([]ConvergencePoint, 0, len(sizes))
	for _, n := range sizes {
		p, err := params.WithNumPaths(n)
		if err != nil {
			return nil, err
		}
		report, err := s.Price(ctx, p, seed)
		if err != nil {
			return nil, errors.Wrapf(err, "convergence at %d paths", n)
		}
		points = append(points, ConvergencePoint{
			NumPaths:   n,
			Call:       report.Result.CallPrice,
			Put:        report.Result.PutPrice,
			CallStdErr: report.Result.CallStdErr,
			PutStdErr:  report.Result.PutStdErr,
			CallRelErr: option.RelativeError(report.Result.CallPrice, reference.Call),
			PutRelErr:  option.RelativeError(report.Result.PutPrice, reference.Put),
			Elapsed:    report.Elapsed,
		})
	}
	return points, nil
}
