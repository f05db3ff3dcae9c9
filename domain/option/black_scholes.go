package option

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesPrice is the closed-form price pair used as a reference for
// the Monte Carlo estimate
type BlackScholesPrice struct {
	Call float64 `json:"call" yaml:"call"`
	Put  float64 `json:"put" yaml:"put"`
}

// BlackScholes computes the closed-form European call and put prices.
// With zero volatility or zero maturity the prices collapse to the
// discounted intrinsic value of the forward.
func BlackScholes(p SimulationParameters) BlackScholesPrice {
	s, k, t, r, v := p.Spot(), p.Strike(), p.Maturity(), p.Rate(), p.Volatility()
	df := DiscountFactor(r, t)

	volSqrtT := v * math.Sqrt(t)
	if volSqrtT == 0 || s == 0 || k == 0 {
		forward := s * math.Exp(r*t)
		return BlackScholesPrice{
			Call: df * math.Max(forward-k, 0),
			Put:  df * math.Max(k-forward, 0),
		}
	}

	d1 := (math.Log(s/k) + (r+0.5*v*v)*t) / volSqrtT
	d2 := d1 - volSqrtT

	n := distuv.UnitNormal
	return BlackScholesPrice{
		Call: s*n.CDF(d1) - k*df*n.CDF(d2),
		Put:  k*df*n.CDF(-d2) - s*n.CDF(-d1),
	}
}

// RelativeError returns |estimate - reference| / |reference|, or the absolute
// error when the reference is zero
func RelativeError(estimate, reference float64) float64 {
	diff := math.Abs(estimate - reference)
	if reference == 0 {
		return diff
	}
	return diff / math.Abs(reference)
}
