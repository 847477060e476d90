package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// FeatureID represents a unique identifier for a safety feature
type FeatureID string

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks if the FeatureID is valid
func (f FeatureID) Validate() error {
	if f == "" {
		return goerr.New("feature ID cannot be empty")
	}
	if !idPattern.MatchString(string(f)) {
		return goerr.New("feature ID must be lowercase alphanumeric with hyphens", goerr.V("id", f))
	}
	return nil
}

// String returns the string representation of FeatureID
func (f FeatureID) String() string {
	return string(f)
}
