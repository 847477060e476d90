package fair

import (
	"context"
	"maps"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// pointRand derives the stream for one sweep point. The sequence number
// sets the high word, so it never collides with featureRand streams.
func pointRand(seed uint64, featureIdx, point int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(featureIdx+1)<<32|uint64(point+1)))
}

// SweepValues returns k evenly spaced values from r.Min() to r.Max(). Both
// endpoints are exact; k == 1 yields only the minimum.
func SweepValues(r model.RangeSpec, k int) []float64 {
	if k < 1 {
		return nil
	}
	values := make([]float64, k)
	lo, hi := r.Min(), r.Max()
	values[0] = lo
	if k == 1 {
		return values
	}
	step := (hi - lo) / float64(k-1)
	for i := 1; i < k-1; i++ {
		values[i] = min(lo+step*float64(i), hi)
	}
	values[k-1] = hi
	return values
}

// PerformSensitivityAnalysis sweeps one factor of one feature across the
// factor's baseline range. At each point the factor is pinned to the swept
// value (after the feature's adjustment) while the other factors keep
// their full distributions. report may be nil; when given, the feature must
// be part of it and its seed and input means are reused.
func (e *Engine) PerformSensitivityAnalysis(ctx context.Context, featureName string, report *model.RiskReport, baseline model.BaselineParameters, opts model.SensitivityOptions) (*model.SensitivityResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid sensitivity options")
	}

	feature, err := e.registry.Lookup(featureName)
	if err != nil {
		return nil, err
	}
	featureIdx, _ := e.registry.Index(feature.Name)

	var seed uint64
	var featureResult *model.FeatureResult
	if report != nil {
		r, ok := report.Feature(feature.Name)
		if !ok {
			return nil, goerr.Wrap(model.ErrUnknownFeature, "feature is not part of the report",
				goerr.V(model.FeatureKey, featureName))
		}
		featureResult = r
		seed = report.Seed
	} else {
		seed = e.nextSeed()
	}

	if opts.Samples > 0 {
		baseline = baseline.WithSamples(opts.Samples)
	}
	if err := baseline.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid baseline parameters")
	}

	k := opts.Points
	if k == 0 {
		k = model.DefaultSensitivityPoints
	}

	factor, selection := opts.Factor, model.SelectionFixed
	switch factor {
	case "":
		factor = model.DefaultSensitivityFactor
	case model.FactorAuto:
		factor = selectFactor(feature, featureResult, baseline, k)
		selection = model.SelectionAuto
	}

	sweep := baseline.Range(factor)
	values := SweepValues(sweep, k)
	points := make([]model.SensitivityPoint, len(values))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i, v := range values {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return goerr.Wrap(err, "sensitivity analysis canceled")
			}

			pinned := baseline.WithRange(factor, model.FixedValue(v))
			s, err := Compose(pointRand(seed, featureIdx, i), feature, pinned)
			if err != nil {
				return goerr.Wrap(err, "failed to compose sweep point",
					goerr.V(model.FactorKey, factor), goerr.V("value", v))
			}
			risk, err := Summarize(s.Components[types.ComponentRisk])
			if err != nil {
				return err
			}
			points[i] = model.SensitivityPoint{Value: v, Risk: risk}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &model.SensitivityResult{
		FeatureID: feature.ID,
		Feature:   feature.Name,
		Factor:    factor,
		Selection: selection,
		Range:     sweep,
		Samples:   baseline.Samples,
		Points:    points,
	}

	logging.From(ctx).Debug("sensitivity analysis finished",
		"feature", feature.Name,
		"factor", factor,
		"selection", selection,
		"points", k,
		"spread", result.Spread(),
	)

	return result, nil
}

// selectFactor picks the factor whose isolated sweep moves risk the most,
// holding the other factors at their sampled means. Ties go to the earlier
// factor in AllFactors order.
func selectFactor(feature *model.SafetyFeature, result *model.FeatureResult, baseline model.BaselineParameters, k int) types.FactorID {
	adj := feature.Adjustment
	means := make(map[types.FactorID]float64, len(types.AllFactors()))
	for _, f := range types.AllFactors() {
		if result != nil {
			if in, ok := result.Inputs[f]; ok {
				means[f] = in.Mean
				continue
			}
		}
		means[f] = adj.AdjustRange(f, baseline.Range(f)).Mid()
	}

	var primary float64
	if adj.PrimaryLoss != nil {
		primary = adj.PrimaryLoss.Mid()
	}

	best, bestSpread := types.AllFactors()[0], -1.0
	for _, f := range types.AllFactors() {
		point := maps.Clone(means)

		lo, hi := 0.0, 0.0
		for i, v := range SweepValues(baseline.Range(f), max(k, 2)) {
			point[f] = adj.AdjustValue(f, v)
			risk := pointRisk(adj, point, primary)
			if i == 0 {
				lo, hi = risk, risk
				continue
			}
			lo, hi = min(lo, risk), max(hi, risk)
		}

		if spread := hi - lo; spread > bestSpread {
			best, bestSpread = f, spread
		}
	}
	return best
}

func pointRisk(adj model.Adjustment, v map[types.FactorID]float64, primary float64) float64 {
	tef := v[types.FactorContactFrequency] * adj.EffectiveTEFMultiplier()
	lef := tef*Vulnerability(v[types.FactorThreatCapability], v[types.FactorResistanceStrength]) +
		v[types.FactorSecondaryLossFrequency]
	return lef * (v[types.FactorSecondaryLossMagnitude] + primary)
}

// PerformSensitivityAnalysis runs a sweep on a default engine.
func PerformSensitivityAnalysis(ctx context.Context, featureName string, report *model.RiskReport, baseline model.BaselineParameters, opts model.SensitivityOptions) (*model.SensitivityResult, error) {
	return New().PerformSensitivityAnalysis(ctx, featureName, report, baseline, opts)
}
