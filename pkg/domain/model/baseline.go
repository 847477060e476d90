package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// DefaultSamples is the sample count used when none is configured
const DefaultSamples = 1000

// BaselineParameters holds the unmitigated FAIR inputs shared by every
// safety feature, plus the number of Monte Carlo samples per feature.
type BaselineParameters struct {
	ContactFrequency       RangeSpec `json:"cf_range"`
	ThreatCapability       RangeSpec `json:"tc_range"`
	ResistanceStrength     RangeSpec `json:"rs_range"`
	SecondaryLossFrequency RangeSpec `json:"sl_ef_range"`
	SecondaryLossMagnitude RangeSpec `json:"sl_magnitude_range"`
	Samples                int       `json:"n_samples"`
}

// DefaultBaseline returns the reference ride-share baseline.
func DefaultBaseline() BaselineParameters {
	return BaselineParameters{
		ContactFrequency:       Between(400000, 600000),
		ThreatCapability:       Between(6, 9),
		ResistanceStrength:     Between(4, 6),
		SecondaryLossFrequency: Between(0.05, 0.15),
		SecondaryLossMagnitude: Between(800000, 1200000),
		Samples:                DefaultSamples,
	}
}

// Range returns the RangeSpec configured for factor f.
func (b BaselineParameters) Range(f types.FactorID) RangeSpec {
	switch f {
	case types.FactorContactFrequency:
		return b.ContactFrequency
	case types.FactorThreatCapability:
		return b.ThreatCapability
	case types.FactorResistanceStrength:
		return b.ResistanceStrength
	case types.FactorSecondaryLossFrequency:
		return b.SecondaryLossFrequency
	case types.FactorSecondaryLossMagnitude:
		return b.SecondaryLossMagnitude
	}
	return RangeSpec{}
}

// WithRange returns a copy of b where factor f uses r.
func (b BaselineParameters) WithRange(f types.FactorID, r RangeSpec) BaselineParameters {
	switch f {
	case types.FactorContactFrequency:
		b.ContactFrequency = r
	case types.FactorThreatCapability:
		b.ThreatCapability = r
	case types.FactorResistanceStrength:
		b.ResistanceStrength = r
	case types.FactorSecondaryLossFrequency:
		b.SecondaryLossFrequency = r
	case types.FactorSecondaryLossMagnitude:
		b.SecondaryLossMagnitude = r
	}
	return b
}

// WithSamples returns a copy of b with the sample count replaced.
func (b BaselineParameters) WithSamples(n int) BaselineParameters {
	b.Samples = n
	return b
}

// Validate checks the sample count, every range and every factor domain.
// All failures match ErrInvalidConfiguration; malformed ranges and a
// non-positive sample count also match ErrInvalidRange.
func (b BaselineParameters) Validate() error {
	if b.Samples < 1 {
		return AsInvalidConfiguration(goerr.Wrap(ErrInvalidRange, "sample count must be at least 1",
			goerr.V(SamplesKey, b.Samples)))
	}

	for _, f := range types.AllFactors() {
		r := b.Range(f)
		if err := r.Validate(); err != nil {
			return AsInvalidConfiguration(goerr.Wrap(err, "invalid baseline range", goerr.V(FactorKey, f)))
		}

		lo, hi := f.Bounds()
		if r.Min() < lo || r.Max() > hi || (f.MinExclusive() && r.Min() <= lo) {
			return AsInvalidConfiguration(goerr.New("baseline range outside factor domain",
				goerr.V(FactorKey, f),
				goerr.V(MinKey, r.Min()),
				goerr.V(MaxKey, r.Max()),
				goerr.V("domain_min", lo),
				goerr.V("domain_max", hi)))
		}
	}

	return nil
}
