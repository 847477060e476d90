package types

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// FactorID identifies one of the five FAIR input factors
type FactorID string

const (
	FactorContactFrequency       FactorID = "cf"
	FactorThreatCapability       FactorID = "tc"
	FactorResistanceStrength     FactorID = "rs"
	FactorSecondaryLossFrequency FactorID = "sl_ef"
	FactorSecondaryLossMagnitude FactorID = "sl_m"
)

// AllFactors returns all input factors in sampling order
func AllFactors() []FactorID {
	return []FactorID{
		FactorContactFrequency,
		FactorThreatCapability,
		FactorResistanceStrength,
		FactorSecondaryLossFrequency,
		FactorSecondaryLossMagnitude,
	}
}

// IsValid checks if the factor is one of the known factors
func (f FactorID) IsValid() bool {
	switch f {
	case FactorContactFrequency,
		FactorThreatCapability,
		FactorResistanceStrength,
		FactorSecondaryLossFrequency,
		FactorSecondaryLossMagnitude:
		return true
	default:
		return false
	}
}

// Validate checks if the FactorID is valid
func (f FactorID) Validate() error {
	if !f.IsValid() {
		return goerr.New("unknown risk factor", goerr.V("factor", f))
	}
	return nil
}

// String returns the string representation of FactorID
func (f FactorID) String() string {
	return string(f)
}

// Label returns a human readable name of the factor
func (f FactorID) Label() string {
	switch f {
	case FactorContactFrequency:
		return "Contact Frequency"
	case FactorThreatCapability:
		return "Threat Capability"
	case FactorResistanceStrength:
		return "Resistance Strength"
	case FactorSecondaryLossFrequency:
		return "Secondary Loss Event Frequency"
	case FactorSecondaryLossMagnitude:
		return "Secondary Loss Magnitude"
	default:
		return string(f)
	}
}

// Bounds returns the closed domain [lo, hi] a factor value must lie in.
// Contact frequency must additionally be strictly positive, see MinExclusive.
func (f FactorID) Bounds() (lo, hi float64) {
	switch f {
	case FactorThreatCapability, FactorResistanceStrength:
		return 0, 10
	case FactorSecondaryLossFrequency:
		return 0, 1
	default:
		return 0, math.Inf(1)
	}
}

// MinExclusive reports whether the lower bound itself is outside the domain
func (f FactorID) MinExclusive() bool {
	return f == FactorContactFrequency
}

// ParseFactorID converts a string (ID or common alias) into a FactorID
func ParseFactorID(s string) (FactorID, error) {
	switch s {
	case "cf", "cf_range", "contact_frequency":
		return FactorContactFrequency, nil
	case "tc", "tc_range", "threat_capability":
		return FactorThreatCapability, nil
	case "rs", "rs_range", "resistance_strength":
		return FactorResistanceStrength, nil
	case "sl_ef", "sl_ef_range", "secondary_loss_event_frequency":
		return FactorSecondaryLossFrequency, nil
	case "sl_m", "sl_magnitude_range", "secondary_loss_magnitude":
		return FactorSecondaryLossMagnitude, nil
	}
	return "", goerr.New("unknown risk factor", goerr.V("factor", s))
}
