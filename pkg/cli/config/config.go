package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// AnalysisConfig represents an analysis configuration file
type AnalysisConfig struct {
	Samples     int                    `toml:"samples"`
	Seed        *uint64                `toml:"seed"`
	Workers     int                    `toml:"workers"`
	Baseline    map[string]FactorRange `toml:"baseline"`
	Sensitivity SensitivityConfig      `toml:"sensitivity"`
	Output      OutputConfig           `toml:"output"`
}

// FactorRange is either {value} or {min, max} for one baseline factor
type FactorRange struct {
	Min   *float64 `toml:"min"`
	Max   *float64 `toml:"max"`
	Value *float64 `toml:"value"`
}

// RangeSpec converts the TOML form into a validated RangeSpec
func (r FactorRange) RangeSpec() (model.RangeSpec, error) {
	switch {
	case r.Value != nil && (r.Min != nil || r.Max != nil):
		return model.RangeSpec{}, goerr.Wrap(ErrInvalidFactor, "value cannot be combined with min/max")
	case r.Value != nil:
		return model.FixedValue(*r.Value), nil
	case r.Min != nil && r.Max != nil:
		spec, err := model.NewRange(*r.Min, *r.Max)
		if err != nil {
			return model.RangeSpec{}, goerr.Wrap(errors.Join(ErrInvalidFactor, err), "invalid range bounds")
		}
		return spec, nil
	default:
		return model.RangeSpec{}, goerr.Wrap(ErrInvalidFactor, "either value or both min and max are required")
	}
}

func factorRangeOf(spec model.RangeSpec) FactorRange {
	lo, hi := spec.Min(), spec.Max()
	if spec.IsFixed() {
		return FactorRange{Value: &lo}
	}
	return FactorRange{Min: &lo, Max: &hi}
}

// SensitivityConfig configures the sensitivity sweep
type SensitivityConfig struct {
	Disabled bool   `toml:"disabled"`
	Feature  string `toml:"feature"`
	Factor   string `toml:"factor"`
	Points   int    `toml:"points"`
}

// OutputConfig configures where artifacts are written
type OutputConfig struct {
	Dir           string `toml:"dir"`
	ExportSamples bool   `toml:"export_samples"`
}

// Validate checks if the AnalysisConfig is valid
func (a *AnalysisConfig) Validate() error {
	if a.Samples < 0 {
		return goerr.Wrap(ErrInvalidConfig, "samples must not be negative", goerr.V("samples", a.Samples))
	}
	if a.Workers < 0 {
		return goerr.Wrap(ErrInvalidConfig, "workers must not be negative", goerr.V("workers", a.Workers))
	}

	seen := make(map[types.FactorID]string)
	for key, r := range a.Baseline {
		f, err := types.ParseFactorID(key)
		if err != nil {
			return goerr.Wrap(errors.Join(ErrInvalidConfig, err), "unknown baseline factor", goerr.V(FactorKey, key))
		}
		if prev, ok := seen[f]; ok {
			return goerr.Wrap(ErrInvalidConfig, "factor configured twice",
				goerr.V(FactorKey, key), goerr.V("previous", prev))
		}
		seen[f] = key

		if _, err := r.RangeSpec(); err != nil {
			return goerr.Wrap(err, "invalid baseline factor", goerr.V(FactorKey, key))
		}
	}

	if _, err := a.SensitivityFactor(); err != nil {
		return err
	}
	if a.Sensitivity.Points < 0 {
		return goerr.Wrap(ErrInvalidConfig, "sensitivity points must not be negative",
			goerr.V("points", a.Sensitivity.Points))
	}

	return nil
}

// SensitivityFactor parses the configured sweep factor. Empty means default.
func (a *AnalysisConfig) SensitivityFactor() (types.FactorID, error) {
	switch a.Sensitivity.Factor {
	case "":
		return "", nil
	case string(model.FactorAuto):
		return model.FactorAuto, nil
	}
	f, err := types.ParseFactorID(a.Sensitivity.Factor)
	if err != nil {
		return "", goerr.Wrap(errors.Join(ErrInvalidConfig, err), "invalid sensitivity factor")
	}
	return f, nil
}

// ApplyTo overlays the configured factors and sample count onto base.
func (a *AnalysisConfig) ApplyTo(base model.BaselineParameters) (model.BaselineParameters, error) {
	for key, r := range a.Baseline {
		f, err := types.ParseFactorID(key)
		if err != nil {
			return base, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "unknown baseline factor", goerr.V(FactorKey, key))
		}
		spec, err := r.RangeSpec()
		if err != nil {
			return base, goerr.Wrap(err, "invalid baseline factor", goerr.V(FactorKey, key))
		}
		base = base.WithRange(f, spec)
	}
	if a.Samples > 0 {
		base = base.WithSamples(a.Samples)
	}
	return base, nil
}

// legacyConfig is the flat JSON override format: factor ranges as a bare
// number or {"min", "max"}, merged over the defaults.
type legacyConfig struct {
	CF       *model.RangeSpec `json:"cf_range"`
	TC       *model.RangeSpec `json:"tc_range"`
	RS       *model.RangeSpec `json:"rs_range"`
	SLEF     *model.RangeSpec `json:"sl_ef_range"`
	SLM      *model.RangeSpec `json:"sl_magnitude_range"`
	NSamples *int             `json:"n_samples"`
}

func (l *legacyConfig) toAnalysisConfig() (*AnalysisConfig, error) {
	cfg := &AnalysisConfig{Baseline: map[string]FactorRange{}}
	for f, spec := range map[types.FactorID]*model.RangeSpec{
		types.FactorContactFrequency:       l.CF,
		types.FactorThreatCapability:       l.TC,
		types.FactorResistanceStrength:     l.RS,
		types.FactorSecondaryLossFrequency: l.SLEF,
		types.FactorSecondaryLossMagnitude: l.SLM,
	} {
		if spec != nil {
			cfg.Baseline[f.String()] = factorRangeOf(*spec)
		}
	}

	if l.NSamples != nil {
		if *l.NSamples < 1 {
			return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, model.ErrInvalidRange),
				"n_samples must be at least 1", goerr.V("n_samples", *l.NSamples))
		}
		cfg.Samples = *l.NSamples
	}
	return cfg, nil
}

// ParseLegacyJSON decodes the flat JSON override format.
func ParseLegacyJSON(data []byte) (*AnalysisConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var legacy legacyConfig
	if err := dec.Decode(&legacy); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse JSON config")
	}
	return legacy.toAnalysisConfig()
}

// ParseTOML decodes the TOML configuration format.
func ParseTOML(data []byte) (*AnalysisConfig, error) {
	var cfg AnalysisConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse TOML config")
	}
	return &cfg, nil
}

// LoadAnalysisConfig loads an analysis configuration. Files ending in .json
// use the legacy JSON format, everything else is TOML.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var cfg *AnalysisConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg, err = ParseLegacyJSON(data)
	} else {
		cfg, err = ParseTOML(data)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load config", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return cfg, nil
}
