package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Run() RunRepository
	Close() error
}
