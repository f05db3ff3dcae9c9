package option

import "math"

// CallPayoff returns max(ST - K, 0)
func CallPayoff(terminal, strike float64) float64 {
	return math.Max(terminal-strike, 0)
}

// PutPayoff returns max(K - ST, 0)
func PutPayoff(terminal, strike float64) float64 {
	return math.Max(strike-terminal, 0)
}

// PathResult is the pair of payoffs of one simulated path
type PathResult struct {
	Call float64
	Put  float64
}

// Evaluate returns both payoffs for one terminal price
func Evaluate(terminal, strike float64) PathResult {
	return PathResult{
		Call: CallPayoff(terminal, strike),
		Put:  PutPayoff(terminal, strike),
	}
}
