package fair_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
)

func fixedBaseline(n int) model.BaselineParameters {
	return model.BaselineParameters{
		ContactFrequency:       model.FixedValue(100),
		ThreatCapability:       model.FixedValue(5),
		ResistanceStrength:     model.FixedValue(5),
		SecondaryLossFrequency: model.FixedValue(0.1),
		SecondaryLossMagnitude: model.FixedValue(1000),
		Samples:                n,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestCompose(t *testing.T) {
	t.Run("fixed inputs follow the FAIR formula", func(t *testing.T) {
		pl := model.FixedValue(500)
		feature := &model.SafetyFeature{
			ID:   "test",
			Name: "Test",
			Adjustment: model.Adjustment{
				TEFMultiplier: 2,
				PrimaryLoss:   &pl,
			},
		}

		s, err := fair.Compose(newRand(1), feature, fixedBaseline(4))
		gt.NoError(t, err).Required()
		gt.Number(t, s.Len()).Equal(4)

		for i := range 4 {
			gt.Bool(t, almostEqual(s.Components[types.ComponentTEF][i], 200)).True()
			gt.Bool(t, almostEqual(s.Components[types.ComponentVulnerability][i], 0.5)).True()
			gt.Bool(t, almostEqual(s.Components[types.ComponentLEF][i], 100.1)).True()
			gt.Bool(t, almostEqual(s.Components[types.ComponentLM][i], 1500)).True()
			gt.Bool(t, almostEqual(s.Components[types.ComponentRisk][i], 150150)).True()
		}
	})

	t.Run("identity adjustment keeps contact frequency as TEF", func(t *testing.T) {
		feature := &model.SafetyFeature{ID: "plain", Name: "Plain"}
		b := model.DefaultBaseline().WithSamples(200)

		s, err := fair.Compose(newRand(2), feature, b)
		gt.NoError(t, err).Required()
		gt.Value(t, s.Components[types.ComponentTEF]).Equal(s.Inputs[types.FactorContactFrequency])
		gt.Value(t, s.Components[types.ComponentLM]).Equal(s.Inputs[types.FactorSecondaryLossMagnitude])

		for i := range s.Len() {
			tef := s.Components[types.ComponentTEF][i]
			v := s.Components[types.ComponentVulnerability][i]
			slEF := s.Inputs[types.FactorSecondaryLossFrequency][i]
			lm := s.Components[types.ComponentLM][i]
			gt.Bool(t, almostEqual(s.Components[types.ComponentLEF][i], tef*v+slEF)).True()
			gt.Bool(t, almostEqual(s.Components[types.ComponentRisk][i], (tef*v+slEF)*lm)).True()
		}
	})

	t.Run("adjusted ranges are clamped into the factor domain", func(t *testing.T) {
		feature := &model.SafetyFeature{
			ID:   "strong",
			Name: "Strong",
			Adjustment: model.Adjustment{
				Factors: map[types.FactorID]model.FactorAdjustment{
					types.FactorResistanceStrength:     {Offset: 10},
					types.FactorSecondaryLossFrequency: {Scale: 20},
				},
			},
		}

		s, err := fair.Compose(newRand(3), feature, model.DefaultBaseline().WithSamples(100))
		gt.NoError(t, err).Required()
		for _, x := range s.Inputs[types.FactorResistanceStrength] {
			gt.Number(t, x).Equal(10)
		}
		for _, x := range s.Inputs[types.FactorSecondaryLossFrequency] {
			gt.Number(t, x).Equal(1)
		}
	})

	t.Run("same seed reproduces every vector", func(t *testing.T) {
		feature, err := fair.DefaultRegistry().Lookup("Emergency SOS Button")
		gt.NoError(t, err).Required()

		a, err := fair.Compose(newRand(9), feature, model.DefaultBaseline())
		gt.NoError(t, err).Required()
		b, err := fair.Compose(newRand(9), feature, model.DefaultBaseline())
		gt.NoError(t, err).Required()
		gt.Value(t, a).Equal(b)
	})

	t.Run("invalid range propagates", func(t *testing.T) {
		feature := &model.SafetyFeature{ID: "plain", Name: "Plain"}
		b := model.DefaultBaseline().WithRange(types.FactorThreatCapability, model.Between(9, 6))
		_, err := fair.Compose(newRand(1), feature, b)
		gt.Error(t, err).Is(model.ErrInvalidRange)

		_, err = fair.Compose(newRand(1), feature, model.DefaultBaseline().WithSamples(0))
		gt.Error(t, err).Is(model.ErrInvalidRange)
	})
	t.Run("overflowing risk is rejected", func(t *testing.T) {
		feature := &model.SafetyFeature{ID: "plain", Name: "Plain"}
		b := fixedBaseline(10).
			WithRange(types.FactorContactFrequency, model.Between(1e160, 2e160)).
			WithRange(types.FactorSecondaryLossMagnitude, model.Between(1e160, 2e160))
		gt.NoError(t, b.Validate()).Required()

		_, err := fair.Compose(newRand(3), feature, b)
		gt.Error(t, err).Is(model.ErrInvalidConfiguration)
	})
}
