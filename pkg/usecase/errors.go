package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrNoRepository = errors.New("run repository is not configured")
	ErrNoSamples    = errors.New("raw samples are not available for this report")
)

// Context keys for error values
const (
	RunIDKey    = "run_id"
	ArtifactKey = "artifact"
)
