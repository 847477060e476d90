package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidRange is returned when a range has min > max or a non-finite bound
	ErrInvalidRange = goerr.New("invalid range")

	// ErrInvalidConfiguration is returned when baseline parameters or analysis settings are unusable
	ErrInvalidConfiguration = goerr.New("invalid configuration")

	// ErrUnknownFeature is returned when a feature name is not in the registry
	ErrUnknownFeature = goerr.New("unknown safety feature")
)

// Context keys for error values
const (
	FactorKey    = "factor"
	FeatureKey   = "feature"
	MinKey       = "min"
	MaxKey       = "max"
	SamplesKey   = "samples"
	PointsKey    = "points"
	ComponentKey = "component"
)

// configError tags a validation failure as an invalid configuration while
// keeping the underlying cause reachable through errors.Is.
type configError struct {
	cause error
}

func (e *configError) Error() string { return e.cause.Error() }
func (e *configError) Unwrap() error { return e.cause }
func (e *configError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// AsInvalidConfiguration marks err so that errors.Is(err, ErrInvalidConfiguration)
// holds in addition to whatever err already matches.
func AsInvalidConfiguration(err error) error {
	if err == nil {
		return nil
	}
	return &configError{cause: err}
}
