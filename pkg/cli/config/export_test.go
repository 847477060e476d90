package config

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{
		backend:    backend,
		projectID:  projectID,
		databaseID: databaseID,
	}
}

// ParseLogLevel is exported for testing
var ParseLogLevel = parseLogLevel
