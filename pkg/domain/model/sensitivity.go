package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// DefaultSensitivityPoints is the number of swept values when none is set
const DefaultSensitivityPoints = 10

// SensitivitySelection tells how the swept factor was chosen
type SensitivitySelection string

const (
	// SelectionFixed sweeps a factor named up front (rs unless overridden)
	SelectionFixed SensitivitySelection = "fixed"
	// SelectionAuto sweeps the factor with the largest risk spread
	SelectionAuto SensitivitySelection = "auto"
)

// FactorAuto asks the sweep to pick the most influential factor itself
const FactorAuto types.FactorID = "auto"

// DefaultSensitivityFactor is swept when no factor is requested
const DefaultSensitivityFactor = types.FactorResistanceStrength

// SensitivityOptions configures a one-factor sweep. Zero values fall back
// to DefaultSensitivityFactor, DefaultSensitivityPoints and the baseline
// sample count.
type SensitivityOptions struct {
	Factor  types.FactorID
	Points  int
	Samples int
}

// Validate checks the options. Zero values are accepted and filled by the engine.
func (o SensitivityOptions) Validate() error {
	if o.Factor != "" && o.Factor != FactorAuto && !o.Factor.IsValid() {
		return AsInvalidConfiguration(goerr.New("unknown sensitivity factor", goerr.V(FactorKey, o.Factor)))
	}
	if o.Points < 0 {
		return AsInvalidConfiguration(goerr.New("sensitivity points must not be negative", goerr.V(PointsKey, o.Points)))
	}
	if o.Samples < 0 {
		return AsInvalidConfiguration(goerr.New("sample count must not be negative", goerr.V(SamplesKey, o.Samples)))
	}
	return nil
}

// SensitivityPoint is the risk summary at one swept factor value.
type SensitivityPoint struct {
	Value float64         `json:"value"`
	Risk  ComponentResult `json:"risk"`
}

// SensitivityResult is the outcome of sweeping one factor for one feature.
type SensitivityResult struct {
	FeatureID types.FeatureID      `json:"feature_id"`
	Feature   string               `json:"feature"`
	Factor    types.FactorID       `json:"factor"`
	Selection SensitivitySelection `json:"selection"`
	Range     RangeSpec            `json:"range"`
	Samples   int                  `json:"samples"`
	Points    []SensitivityPoint   `json:"points"`
}

// Values returns the swept factor values in order.
func (r *SensitivityResult) Values() []float64 {
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		values[i] = p.Value
	}
	return values
}

// Spread returns max minus min of the per-point median risk.
func (r *SensitivityResult) Spread() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	lo, hi := r.Points[0].Risk.Median, r.Points[0].Risk.Median
	for _, p := range r.Points[1:] {
		lo = min(lo, p.Risk.Median)
		hi = max(hi, p.Risk.Median)
	}
	return hi - lo
}
