package fair

import (
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

// Sample draws n values from spec. A fixed or zero-width spec yields n
// exact copies without consuming randomness; an interval yields independent
// uniform draws on [min, max]. rng must not be nil for an interval.
func Sample(rng *rand.Rand, spec model.RangeSpec, n int) (model.SampleVector, error) {
	if n < 1 {
		return nil, goerr.Wrap(model.ErrInvalidRange, "sample count must be at least 1",
			goerr.V(model.SamplesKey, n))
	}
	if err := spec.Validate(); err != nil {
		return nil, goerr.Wrap(err, "cannot sample from range")
	}

	out := make(model.SampleVector, n)
	if spec.IsFixed() || spec.Width() == 0 {
		v := spec.Min()
		for i := range out {
			out[i] = v
		}
		return out, nil
	}

	lo, hi, width := spec.Min(), spec.Max(), spec.Width()
	for i := range out {
		// Float64 is in [0, 1); rounding can still land a hair above hi
		out[i] = min(lo+rng.Float64()*width, hi)
	}
	return out, nil
}
