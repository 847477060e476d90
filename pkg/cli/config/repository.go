package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/repository/firestore"
	"github.com/secmon-lab/safetyrisk/pkg/repository/memory"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendNone      = "none"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend    string
	projectID  string
	databaseID string
}

// Flags returns CLI flags for repository configuration. defaultBackend is
// "none" for one-shot commands and "memory" for the server.
func (r *Repository) Flags(defaultBackend string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Run history backend (none, memory or firestore)",
			Value:       defaultBackend,
			Sources:     cli.EnvVars("SAFETYRISK_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Sources:     cli.EnvVars("SAFETYRISK_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("SAFETYRISK_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Configure initializes and returns a repository based on the configured backend.
// The "none" backend returns a nil repository and runs are not persisted.
// The caller is responsible for calling Close() on a non-nil repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	case BackendNone, "":
		return nil, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
