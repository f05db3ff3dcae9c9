package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary holds order and moment statistics of a sample
type Summary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Q75    float64 `json:"q75" yaml:"q75"`
	P99    float64 `json:"p99" yaml:"p99"`
}

// Shape describes the distribution shape of a sample
type Shape struct {
	Skewness float64 `json:"skewness" yaml:"skewness"`
	Kurtosis float64 `json:"kurtosis" yaml:"kurtosis"`
	IsNormal bool    `json:"is_normal" yaml:"is_normal"`
	NormalP  float64 `json:"normal_p" yaml:"normal_p"`
	Outliers int     `json:"outliers" yaml:"outliers"`
}

// Distribution is the analysis of one sample
type Distribution struct {
	Summary Summary `json:"summary" yaml:"summary"`
	Shape   Shape   `json:"shape" yaml:"shape"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeDistribution computes summary statistics and shape of data
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (Distribution, error) {
	var d Distribution

	mean, err := stats.Mean(data)
	if err != nil {
		return d, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return d, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return d, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return d, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return d, err
	}
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return d, err
	}
	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return d, err
	}
	p99, err := stats.Percentile(data, 99)
	if err != nil {
		return d, err
	}

	d.Summary = Summary{
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Median: median,
		Q25:    q25,
		Q75:    q75,
		P99:    p99,
	}

	d.Shape.Skewness = calculateSkewness(data, mean, stdDev)
	d.Shape.Kurtosis = calculateKurtosis(data, mean, stdDev)
	d.Shape.IsNormal, d.Shape.NormalP = testNormality(d.Shape.Skewness, d.Shape.Kurtosis, len(data))
	d.Shape.Outliers = detectOutliers(data, q25, q75)

	return d, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes sample kurtosis (3 for a normal sample)
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	return sumFourthDeviations / n
}

// testNormality is the Jarque-Bera test: JB = n/6 (S^2 + (K-3)^2/4) is
// chi-square with two degrees of freedom under normality
func testNormality(skewness, kurtosis float64, n int) (isNormal bool, pValue float64) {
	if n < 8 {
		return false, 1.0
	}
	excess := kurtosis - 3
	jb := float64(n) / 6 * (skewness*skewness + excess*excess/4)

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(jb)
	return pValue > 0.01, pValue
}

// detectOutliers identifies outliers using IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
