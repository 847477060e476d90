package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// FactorAdjustment maps a baseline factor value x to Scale*x + Offset.
// A zero Scale is treated as 1 so that the zero value is the identity.
type FactorAdjustment struct {
	Scale  float64 `json:"scale,omitempty"`
	Offset float64 `json:"offset,omitempty"`
}

// EffectiveScale returns the scale actually applied.
func (a FactorAdjustment) EffectiveScale() float64 {
	if a.Scale == 0 {
		return 1
	}
	return a.Scale
}

// Apply maps x without clamping.
func (a FactorAdjustment) Apply(x float64) float64 {
	return a.EffectiveScale()*x + a.Offset
}

// IsIdentity reports whether the adjustment leaves values unchanged.
func (a FactorAdjustment) IsIdentity() bool {
	return a.EffectiveScale() == 1 && a.Offset == 0
}

// Adjustment describes how a safety feature changes the baseline scenario.
type Adjustment struct {
	Factors map[types.FactorID]FactorAdjustment `json:"factors,omitempty"`

	// TEFMultiplier scales contact frequency into threat event frequency.
	// Zero means 1.
	TEFMultiplier float64 `json:"tef_multiplier,omitempty"`

	// PrimaryLoss adds a per-event primary loss magnitude on top of SL_M.
	PrimaryLoss *RangeSpec `json:"primary_loss,omitempty"`
}

// EffectiveTEFMultiplier returns the multiplier actually applied.
func (a Adjustment) EffectiveTEFMultiplier() float64 {
	if a.TEFMultiplier == 0 {
		return 1
	}
	return a.TEFMultiplier
}

// Factor returns the adjustment for f, or the identity when none is set.
func (a Adjustment) Factor(f types.FactorID) FactorAdjustment {
	return a.Factors[f]
}

// AdjustRange applies the factor adjustment to a baseline range and clamps
// it into the factor domain.
func (a Adjustment) AdjustRange(f types.FactorID, base RangeSpec) RangeSpec {
	adj := a.Factor(f)
	if adj.IsIdentity() {
		return base
	}
	lo, hi := f.Bounds()
	return base.Transform(adj.EffectiveScale(), adj.Offset, lo, hi)
}

// AdjustValue applies the factor adjustment to a single value and clamps
// it into the factor domain.
func (a Adjustment) AdjustValue(f types.FactorID, x float64) float64 {
	adj := a.Factor(f)
	if adj.IsIdentity() {
		return x
	}
	lo, hi := f.Bounds()
	return clamp(adj.Apply(x), lo, hi)
}

// Validate checks that every adjustment is well formed.
func (a Adjustment) Validate() error {
	for f, adj := range a.Factors {
		if err := f.Validate(); err != nil {
			return goerr.Wrap(err, "invalid adjustment factor")
		}
		if adj.Scale < 0 || math.IsNaN(adj.Scale) || math.IsInf(adj.Scale, 0) {
			return goerr.New("adjustment scale must be a finite non-negative number",
				goerr.V(FactorKey, f), goerr.V("scale", adj.Scale))
		}
		if math.IsNaN(adj.Offset) || math.IsInf(adj.Offset, 0) {
			return goerr.New("adjustment offset must be finite",
				goerr.V(FactorKey, f), goerr.V("offset", adj.Offset))
		}
	}

	if a.TEFMultiplier < 0 || math.IsNaN(a.TEFMultiplier) || math.IsInf(a.TEFMultiplier, 0) {
		return goerr.New("TEF multiplier must be a finite non-negative number",
			goerr.V("tef_multiplier", a.TEFMultiplier))
	}

	if a.PrimaryLoss != nil {
		if err := a.PrimaryLoss.Validate(); err != nil {
			return goerr.Wrap(err, "invalid primary loss range")
		}
		if a.PrimaryLoss.Min() < 0 {
			return goerr.New("primary loss must not be negative", goerr.V(MinKey, a.PrimaryLoss.Min()))
		}
	}
	return nil
}

// SafetyFeature is a named candidate control evaluated by the engine.
type SafetyFeature struct {
	ID          types.FeatureID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Adjustment  Adjustment      `json:"adjustment"`
}

// Validate checks the feature definition.
func (f *SafetyFeature) Validate() error {
	if err := f.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid feature ID", goerr.V(FeatureKey, f.Name))
	}
	if f.Name == "" {
		return goerr.New("feature name is required", goerr.V("id", f.ID))
	}
	if err := f.Adjustment.Validate(); err != nil {
		return goerr.Wrap(err, "invalid feature adjustment", goerr.V(FeatureKey, f.Name))
	}
	return nil
}
