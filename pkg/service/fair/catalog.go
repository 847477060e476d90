package fair

import (
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

type factorAdjustments = map[types.FactorID]model.FactorAdjustment

func lossRange(min, max float64) *model.RangeSpec {
	r := model.Between(min, max)
	return &r
}

// catalog lists the ride-share safety features. TEFMultiplier is the share
// of trip contacts that turn into a threat event the feature addresses;
// factor offsets shift the 0-10 capability and resistance scales.
func catalog() []model.SafetyFeature {
	return []model.SafetyFeature{
		{
			ID:          "driver-background-checks",
			Name:        "Driver Background Checks",
			Description: "Criminal and driving record screening before and during driver onboarding",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.02,
				Factors: factorAdjustments{
					types.FactorThreatCapability:       {Offset: 0.5},
					types.FactorResistanceStrength:     {Offset: -0.5},
					types.FactorSecondaryLossMagnitude: {Scale: 1.5},
				},
				PrimaryLoss: lossRange(50000, 250000),
			},
		},
		{
			ID:          "real-time-trip-monitoring",
			Name:        "Real-Time Trip Monitoring",
			Description: "Continuous GPS telemetry review by the safety operations team",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.05,
				Factors: factorAdjustments{
					types.FactorResistanceStrength: {Offset: 0.5},
				},
			},
		},
		{
			ID:          "emergency-sos-button",
			Name:        "Emergency SOS Button",
			Description: "In-app emergency call that shares live location with responders",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.01,
				Factors: factorAdjustments{
					types.FactorThreatCapability:       {Offset: 1},
					types.FactorSecondaryLossMagnitude: {Scale: 2},
				},
				PrimaryLoss: lossRange(100000, 500000),
			},
		},
		{
			ID:          "ride-verification-pin",
			Name:        "Ride Verification PIN",
			Description: "Rider confirms a PIN before the trip starts to prevent wrong-vehicle pickups",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.03,
				Factors: factorAdjustments{
					types.FactorResistanceStrength:     {Offset: -1},
					types.FactorSecondaryLossFrequency: {Scale: 0.8},
				},
			},
		},
		{
			ID:          "trip-sharing",
			Name:        "Trip Sharing",
			Description: "Rider shares trip status and ETA with trusted contacts",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.04,
				Factors: factorAdjustments{
					types.FactorSecondaryLossMagnitude: {Scale: 0.8},
				},
			},
		},
		{
			ID:          "driver-identity-verification",
			Name:        "Driver Identity Verification",
			Description: "Periodic selfie checks matching the active driver to the registered account",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.02,
				Factors: factorAdjustments{
					types.FactorThreatCapability:   {Offset: 0.5},
					types.FactorResistanceStrength: {Offset: 0.5},
				},
				PrimaryLoss: lossRange(20000, 80000),
			},
		},
		{
			ID:          "anonymized-communication",
			Name:        "Anonymized In-App Communication",
			Description: "Masked phone numbers and in-app chat between riders and drivers",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.08,
				Factors: factorAdjustments{
					types.FactorThreatCapability:       {Offset: -1},
					types.FactorSecondaryLossMagnitude: {Scale: 0.5},
				},
			},
		},
		{
			ID:          "rider-rating-system",
			Name:        "Rider Rating System",
			Description: "Two-way ratings that deactivate accounts with repeated safety reports",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.1,
				Factors: factorAdjustments{
					types.FactorThreatCapability:       {Offset: -2},
					types.FactorSecondaryLossMagnitude: {Scale: 0.3},
				},
			},
		},
		{
			ID:          "route-deviation-alerts",
			Name:        "Route Deviation Alerts",
			Description: "Automatic check-in when a trip leaves the expected route",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.03,
				Factors: factorAdjustments{
					types.FactorResistanceStrength:     {Offset: 1},
					types.FactorSecondaryLossFrequency: {Scale: 1.2},
				},
			},
		},
		{
			ID:          "speed-monitoring",
			Name:        "Speed Monitoring",
			Description: "Telematics alerts for sustained speeding and harsh driving",
			Adjustment: model.Adjustment{
				TEFMultiplier: 0.06,
				Factors: factorAdjustments{
					types.FactorThreatCapability:       {Offset: -0.5},
					types.FactorSecondaryLossFrequency: {Scale: 1.2},
					types.FactorSecondaryLossMagnitude: {Scale: 0.6},
				},
				PrimaryLoss: lossRange(5000, 30000),
			},
		},
	}
}
