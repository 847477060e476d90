package interfaces

import (
	"context"

	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

// RunRepository defines the interface for analysis run persistence
type RunRepository interface {
	// Put creates or replaces a run
	Put(ctx context.Context, run *model.Run) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id model.RunID) (*model.Run, error)

	// List retrieves all runs, newest first
	List(ctx context.Context) ([]*model.Run, error)

	// Delete deletes a run by ID
	Delete(ctx context.Context, id model.RunID) error
}
