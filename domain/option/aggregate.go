package option

import "math"

// AggregateResult is the discounted Monte Carlo estimate of both prices
type AggregateResult struct {
	CallPrice  float64 `json:"call_price" yaml:"call_price"`
	PutPrice   float64 `json:"put_price" yaml:"put_price"`
	CallStdErr float64 `json:"call_std_err" yaml:"call_std_err"`
	PutStdErr  float64 `json:"put_std_err" yaml:"put_std_err"`
	NumPaths   int     `json:"num_paths" yaml:"num_paths"`
}

// PayoffMoments are the reduced first and second moments of the payoffs
type PayoffMoments struct {
	N         int
	CallSum   float64
	PutSum    float64
	CallSumSq float64
	PutSumSq  float64
}

// Means returns the arithmetic means of the call and put payoffs.
// N must be positive; callers validate the path count before reducing.
func (m PayoffMoments) Means() (call, put float64) {
	n := float64(m.N)
	return m.CallSum / n, m.PutSum / n
}

// DiscountFactor returns exp(-r*T)
func DiscountFactor(rate, maturity float64) float64 {
	return math.Exp(-rate * maturity)
}

// Discount turns reduced payoff moments into present-value prices. The
// standard errors use the unbiased sample variance and are zero for N == 1.
func Discount(m PayoffMoments, rate, maturity float64) AggregateResult {
	df := DiscountFactor(rate, maturity)
	callMean, putMean := m.Means()

	return AggregateResult{
		CallPrice:  df * callMean,
		PutPrice:   df * putMean,
		CallStdErr: df * stdErr(m.CallSum, m.CallSumSq, m.N),
		PutStdErr:  df * stdErr(m.PutSum, m.PutSumSq, m.N),
		NumPaths:   m.N,
	}
}

func stdErr(sum, sumSq float64, n int) float64 {
	if n < 2 {
		return 0
	}
	fn := float64(n)
	mean := sum / fn
	variance := (sumSq - fn*mean*mean) / (fn - 1)
	if variance < 0 {
		// cancellation on near-constant payoffs
		variance = 0
	}
	return math.Sqrt(variance / fn)
}

// ParityGap returns (call - put) - (S - K*exp(-rT)), which is zero in expectation
func ParityGap(result AggregateResult, p SimulationParameters) float64 {
	forward := p.Spot() - p.Strike()*DiscountFactor(p.Rate(), p.Maturity())
	return (result.CallPrice - result.PutPrice) - forward
}
