package fair

import (
	"math"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// Compose runs one Monte Carlo pass for feature over baseline. Every index i
// across the returned vectors is one coherent scenario:
//
//	tef  = cf * tef_multiplier
//	vuln = logistic(tc - rs)
//	lef  = tef * vuln + sl_ef
//	lm   = sl_m (+ primary loss)
//	risk = lef * lm
//
// Factors are drawn in AllFactors order followed by primary loss, so a
// seeded rng always reproduces the same vectors.
func Compose(rng *rand.Rand, feature *model.SafetyFeature, baseline model.BaselineParameters) (*model.FeatureSamples, error) {
	n := baseline.Samples
	adj := feature.Adjustment
	samples := model.NewFeatureSamples()

	for _, f := range types.AllFactors() {
		vec, err := Sample(rng, adj.AdjustRange(f, baseline.Range(f)), n)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to sample factor",
				goerr.V(model.FactorKey, f),
				goerr.V(model.FeatureKey, feature.Name))
		}
		samples.Inputs[f] = vec
	}

	var primary model.SampleVector
	if adj.PrimaryLoss != nil {
		vec, err := Sample(rng, *adj.PrimaryLoss, n)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to sample primary loss",
				goerr.V(model.FeatureKey, feature.Name))
		}
		primary = vec
	}

	cf := samples.Inputs[types.FactorContactFrequency]
	slEF := samples.Inputs[types.FactorSecondaryLossFrequency]
	slM := samples.Inputs[types.FactorSecondaryLossMagnitude]

	vuln, err := VulnerabilityVec(samples.Inputs[types.FactorThreatCapability], samples.Inputs[types.FactorResistanceStrength])
	if err != nil {
		return nil, err
	}

	mult := adj.EffectiveTEFMultiplier()
	tef := make(model.SampleVector, n)
	lef := make(model.SampleVector, n)
	lm := make(model.SampleVector, n)
	risk := make(model.SampleVector, n)
	for i := range n {
		tef[i] = cf[i] * mult
		lef[i] = tef[i]*vuln[i] + slEF[i]
		lm[i] = slM[i]
		if primary != nil {
			lm[i] += primary[i]
		}
		risk[i] = lef[i] * lm[i]
	}

	samples.Components[types.ComponentTEF] = tef
	samples.Components[types.ComponentVulnerability] = vuln
	samples.Components[types.ComponentLEF] = lef
	samples.Components[types.ComponentLM] = lm
	samples.Components[types.ComponentRisk] = risk

	for _, c := range types.AllComponents() {
		for i, x := range samples.Components[c] {
			if math.IsInf(x, 0) || math.IsNaN(x) {
				return nil, model.AsInvalidConfiguration(goerr.New("composed sample is not finite",
					goerr.V(model.FeatureKey, feature.Name),
					goerr.V(model.ComponentKey, c),
					goerr.V("index", i)))
			}
		}
	}

	return samples, nil
}
