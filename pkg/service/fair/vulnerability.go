package fair

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

var (
	logisticFloor = math.SmallestNonzeroFloat64
	logisticCeil  = math.Nextafter(1, 0)
)

// Logistic returns 1/(1+e^-x) without overflow for any input. Results for
// finite x are kept strictly inside (0, 1); NaN propagates.
func Logistic(x float64) float64 {
	var v float64
	if x >= 0 {
		v = 1 / (1 + math.Exp(-x))
	} else {
		e := math.Exp(x)
		v = e / (1 + e)
	}

	if math.IsInf(x, 0) || math.IsNaN(v) {
		return v
	}
	return min(max(v, logisticFloor), logisticCeil)
}

// Vulnerability is the probability that a threat contact becomes a loss
// event, given threat capability tc and resistance strength rs.
func Vulnerability(tc, rs float64) float64 {
	return Logistic(tc - rs)
}

// VulnerabilityVec applies Vulnerability elementwise.
func VulnerabilityVec(tc, rs model.SampleVector) (model.SampleVector, error) {
	if len(tc) != len(rs) {
		return nil, goerr.New("threat capability and resistance strength length mismatch",
			goerr.V("tc", len(tc)), goerr.V("rs", len(rs)))
	}

	out := make(model.SampleVector, len(tc))
	for i := range tc {
		out[i] = Vulnerability(tc[i], rs[i])
	}
	return out, nil
}
