package fair

import (
	"math"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

// Summarize reduces v to mean, median, p5, p95, min and max. The mean is
// clamped into [min, max] to absorb summation rounding.
func Summarize(v model.SampleVector) (model.ComponentResult, error) {
	if len(v) == 0 {
		return model.ComponentResult{}, goerr.Wrap(model.ErrInvalidRange, "cannot summarize an empty sample vector")
	}

	sorted := slices.Clone(v)
	slices.Sort(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	return model.ComponentResult{
		Mean:   min(max(mean(v), lo), hi),
		Median: Percentile(sorted, 50),
		P5:     Percentile(sorted, 5),
		P95:    Percentile(sorted, 95),
		Min:    lo,
		Max:    hi,
	}, nil
}

// Percentile returns the p-th percentile (0-100) of an ascending slice,
// interpolating linearly between the two nearest order statistics.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	pos := p / 100 * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return sorted[n-1]
	}
	a, b := sorted[i], sorted[i+1]
	v := a + (pos-float64(i))*(b-a)
	return min(max(v, a), b)
}

// mean uses Neumaier summation; risk samples span many orders of magnitude.
func mean(v model.SampleVector) float64 {
	var sum, c float64
	for _, x := range v {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			c += (sum - t) + x
		} else {
			c += (x - t) + sum
		}
		sum = t
	}
	return (sum + c) / float64(len(v))
}
