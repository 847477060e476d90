package model

import (
	"sort"

	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// SampleVector is an ordered list of Monte Carlo draws for one quantity.
type SampleVector []float64

// FeatureSamples holds every sampled input and derived component for one
// feature. All vectors share the same length.
type FeatureSamples struct {
	Inputs     map[types.FactorID]SampleVector
	Components map[types.ComponentID]SampleVector
}

// NewFeatureSamples allocates empty sample maps.
func NewFeatureSamples() *FeatureSamples {
	return &FeatureSamples{
		Inputs:     make(map[types.FactorID]SampleVector, len(types.AllFactors())),
		Components: make(map[types.ComponentID]SampleVector, len(types.AllComponents())),
	}
}

// Len returns the number of samples.
func (s *FeatureSamples) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Components[types.ComponentRisk])
}

// ComponentResult summarizes a sample vector.
type ComponentResult struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// FeatureResult carries summary statistics for one safety feature.
type FeatureResult struct {
	ID         types.FeatureID                       `json:"id"`
	Name       string                                `json:"name"`
	Components map[types.ComponentID]ComponentResult `json:"components"`
	Inputs     map[types.FactorID]ComponentResult    `json:"inputs"`
}

// Component returns the summary for c. The zero value is returned when the
// component is missing.
func (r *FeatureResult) Component(c types.ComponentID) ComponentResult {
	return r.Components[c]
}

// Risk is shorthand for Component(types.ComponentRisk).
func (r *FeatureResult) Risk() ComponentResult {
	return r.Components[types.ComponentRisk]
}

// RiskReport is the full output of one analysis. Features keep registry
// order; Ranking returns them ordered by expected risk.
type RiskReport struct {
	Seed     uint64          `json:"seed"`
	Samples  int             `json:"samples"`
	Features []FeatureResult `json:"features"`

	samples map[types.FeatureID]*FeatureSamples
}

// NewRiskReport builds a report. samples may be nil when raw draws are not
// retained (for example after loading a stored run).
func NewRiskReport(seed uint64, n int, features []FeatureResult, samples map[types.FeatureID]*FeatureSamples) *RiskReport {
	return &RiskReport{
		Seed:     seed,
		Samples:  n,
		Features: features,
		samples:  samples,
	}
}

// Feature looks up a feature result by display name or ID.
func (r *RiskReport) Feature(nameOrID string) (*FeatureResult, bool) {
	for i := range r.Features {
		f := &r.Features[i]
		if f.Name == nameOrID || string(f.ID) == nameOrID {
			return f, true
		}
	}
	return nil, false
}

// FeatureSamples returns the raw draws for a feature if they were retained.
func (r *RiskReport) FeatureSamples(nameOrID string) (*FeatureSamples, bool) {
	f, ok := r.Feature(nameOrID)
	if !ok || r.samples == nil {
		return nil, false
	}
	s, ok := r.samples[f.ID]
	return s, ok
}

// HasSamples reports whether raw draws are available.
func (r *RiskReport) HasSamples() bool {
	return len(r.samples) > 0
}

// Ranking returns features ordered by median risk descending. Ties are
// broken by mean risk descending, then by registry order.
func (r *RiskReport) Ranking() []FeatureResult {
	ranked := make([]FeatureResult, len(r.Features))
	copy(ranked, r.Features)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Risk(), ranked[j].Risk()
		if a.Median != b.Median {
			return a.Median > b.Median
		}
		return a.Mean > b.Mean
	})
	return ranked
}

// Top returns the highest-ranked feature, or nil for an empty report.
func (r *RiskReport) Top() *FeatureResult {
	ranked := r.Ranking()
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}
