package option

import "math"

// TerminalPrice is the closed-form GBM price at maturity for one standard
// normal draw z:
//
//	S * exp((r - sigma^2/2) * T + sigma * sqrt(T) * z)
func TerminalPrice(spot, rate, volatility, maturity, z float64) float64 {
	return NewPathModel(spot, rate, volatility, maturity).TerminalPrice(z)
}

// PathModel caches the drift and diffusion terms of the exponent so that each
// path costs one multiply-add and one exp. All terms are float64 regardless of
// how payoffs are stored.
type PathModel struct {
	spot      float64
	drift     float64 // (r - sigma^2/2) * T
	diffusion float64 // sigma * sqrt(T)
}

// NewPathModel precomputes the exponent terms
func NewPathModel(spot, rate, volatility, maturity float64) PathModel {
	return PathModel{
		spot:      spot,
		drift:     (rate - 0.5*volatility*volatility) * maturity,
		diffusion: volatility * math.Sqrt(maturity),
	}
}

// TerminalPrice evaluates the model for one draw
func (m PathModel) TerminalPrice(z float64) float64 {
	return m.spot * math.Exp(m.drift+m.diffusion*z)
}

// Drift returns (r - sigma^2/2) * T
func (m PathModel) Drift() float64 { return m.drift }

// Diffusion returns sigma * sqrt(T)
func (m PathModel) Diffusion() float64 { return m.diffusion }
