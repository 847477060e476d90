package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// RangeSpec describes an input factor as either a fixed value or a uniform
// interval [min, max]. A fixed value behaves like a zero-width range.
type RangeSpec struct {
	min   float64
	max   float64
	fixed bool
}

// FixedValue returns a RangeSpec that always yields v.
func FixedValue(v float64) RangeSpec {
	return RangeSpec{min: v, max: v, fixed: true}
}

// Between returns an interval RangeSpec without checking it. Use Validate or
// NewRange when the bounds come from user input.
func Between(min, max float64) RangeSpec {
	return RangeSpec{min: min, max: max}
}

// NewRange returns a validated interval RangeSpec.
func NewRange(min, max float64) (RangeSpec, error) {
	r := Between(min, max)
	if err := r.Validate(); err != nil {
		return RangeSpec{}, err
	}
	return r, nil
}

func (r RangeSpec) IsFixed() bool  { return r.fixed }
func (r RangeSpec) Min() float64   { return r.min }
func (r RangeSpec) Max() float64   { return r.max }
func (r RangeSpec) Mid() float64   { return r.min + (r.max-r.min)/2 }
func (r RangeSpec) Width() float64 { return r.max - r.min }

// IsZero reports whether r is the zero RangeSpec (an unset field).
func (r RangeSpec) IsZero() bool {
	return r == RangeSpec{}
}

// Contains reports whether x lies within [min, max].
func (r RangeSpec) Contains(x float64) bool {
	return x >= r.min && x <= r.max
}

// Validate checks that both bounds are finite and min <= max.
func (r RangeSpec) Validate() error {
	if math.IsNaN(r.min) || math.IsNaN(r.max) || math.IsInf(r.min, 0) || math.IsInf(r.max, 0) {
		return goerr.Wrap(ErrInvalidRange, "range bounds must be finite",
			goerr.V(MinKey, r.min), goerr.V(MaxKey, r.max))
	}
	if r.min > r.max {
		return goerr.Wrap(ErrInvalidRange, "range min must not exceed max",
			goerr.V(MinKey, r.min), goerr.V(MaxKey, r.max))
	}
	return nil
}

// Transform maps every point x of r to scale*x+offset and clamps the result
// into [lo, hi]. Fixed values stay fixed. A negative scale swaps the bounds.
func (r RangeSpec) Transform(scale, offset, lo, hi float64) RangeSpec {
	apply := func(x float64) float64 {
		return clamp(scale*x+offset, lo, hi)
	}
	if r.fixed {
		return FixedValue(apply(r.min))
	}
	a, b := apply(r.min), apply(r.max)
	if a > b {
		a, b = b, a
	}
	return Between(a, b)
}

func (r RangeSpec) String() string {
	if r.fixed {
		return strconv.FormatFloat(r.min, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s, %s]",
		strconv.FormatFloat(r.min, 'g', -1, 64),
		strconv.FormatFloat(r.max, 'g', -1, 64))
}

type rangeDocument struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// MarshalJSON encodes a fixed value as a bare number and an interval as
// {"min": .., "max": ..}.
func (r RangeSpec) MarshalJSON() ([]byte, error) {
	if r.fixed {
		return json.Marshal(r.min)
	}
	return json.Marshal(rangeDocument{Min: &r.min, Max: &r.max})
}

// UnmarshalJSON accepts either a bare number or an object with both min and
// max. Bound ordering is left to Validate.
func (r *RangeSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return goerr.Wrap(ErrInvalidRange, "range must be a number or an object with min and max",
				goerr.V("raw", string(data)))
		}
		*r = FixedValue(v)
		return nil
	}

	var doc rangeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return goerr.Wrap(ErrInvalidRange, "failed to decode range object", goerr.V("raw", string(data)))
	}
	if doc.Min == nil || doc.Max == nil {
		return goerr.Wrap(ErrInvalidRange, "range object requires both min and max", goerr.V("raw", string(data)))
	}
	*r = Between(*doc.Min, *doc.Max)
	return nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
