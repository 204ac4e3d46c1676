package report

import (
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary is the describe() block of a numeric series.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// Describe summarizes vals. Std is the sample deviation (n-1); quantiles
// interpolate linearly between closest ranks. An empty input yields NaN
// statistics with Count 0, and a single value has a NaN Std.
func Describe(vals []float64) Summary {
	nan := math.NaN()
	s := Summary{Count: len(vals), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(vals) == 0 {
		return s
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// MarshalJSON writes NaN statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	f := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Count int      `json:"count"`
		Mean  *float64 `json:"mean"`
		Std   *float64 `json:"std"`
		Min   *float64 `json:"min"`
		Q25   *float64 `json:"25%"`
		Q50   *float64 `json:"50%"`
		Q75   *float64 `json:"75%"`
		Max   *float64 `json:"max"`
	}{s.Count, f(s.Mean), f(s.Std), f(s.Min), f(s.Q25), f(s.Q50), f(s.Q75), f(s.Max)})
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// quantile interpolates linearly between closest ranks of sorted input.
// stat.LinInterp puts sorted[i] at cumulative weight i+1, so q is rescaled
// to land on position q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	n := float64(len(sorted))
	if n == 0 {
		return math.NaN()
	}
	return stat.Quantile((q*(n-1)+1)/n, stat.LinInterp, sorted, nil)
}

// Bin is one histogram bucket [Lo, Hi); the last bucket also holds Hi.
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram splits [min, max] of vals into n equal-width bins. When every
// value is equal the range is widened to [v-0.5, v+0.5].
func Histogram(vals []float64, n int) []Bin {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	lo, hi := slices.Min(vals), slices.Max(vals)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	// The top divider is exclusive; nudge it so hi lands in the last bin.
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].Hi = hi
	return bins
}

// Box is the five-number summary behind a box plot. Whiskers reach the
// most extreme values within 1.5 IQR of the quartiles.
type Box struct {
	Count        int
	Min          float64
	LowWhisker   float64
	Q1           float64
	Median       float64
	Q3           float64
	HighWhisker  float64
	Max          float64
	OutlierCount int
}

// BoxOf computes the Box of vals. vals must not be empty.
func BoxOf(vals []float64) Box {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	b := Box{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
	}
	iqr := b.Q3 - b.Q1
	loFence, hiFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowWhisker, b.HighWhisker = b.Max, b.Min
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			b.OutlierCount++
			continue
		}
		b.LowWhisker = min(b.LowWhisker, v)
		b.HighWhisker = max(b.HighWhisker, v)
	}
	return b
}

// Pearson returns the correlation of the pairs (x[i], y[i]) where both are
// present (not NaN). It is NaN with fewer than two pairs or zero variance.
func Pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
