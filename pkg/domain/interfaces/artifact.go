package interfaces

import "context"

// ArtifactStore persists named report files (summary tables, JSON results,
// sample exports) produced by an analysis.
type ArtifactStore interface {
	// Put writes data under name, replacing any previous content
	Put(ctx context.Context, name string, contentType string, data []byte) error

	// Location returns a human readable URI for name
	Location(name string) string
}
