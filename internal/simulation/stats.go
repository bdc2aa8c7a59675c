package simulation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a sample of kg CO2e values.
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// Describe computes Stats for values. StdDev is the sample standard
// deviation and is zero for fewer than two values. values is not modified.
func Describe(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if n < 2 {
		std = 0
	}

	return Stats{
		N:      n,
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Max:    sorted[n-1],
		P5:     Percentile(sorted, 5),
		P25:    Percentile(sorted, 25),
		P50:    Percentile(sorted, 50),
		P75:    Percentile(sorted, 75),
		P95:    Percentile(sorted, 95),
	}
}

// Percentile returns the p-th percentile (0-100) of sorted by linear
// interpolation of the empirical CDF (Hyndman and Fan type 4). p is clamped
// to [0,100]; an empty sample yields NaN.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	return stat.Quantile(min(max(p, 0), 100)/100, stat.LinInterp, sorted, nil)
}
