package memory

import (
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	run *runRepository
}

var _ interfaces.Repository = &Memory{}

// ErrNotFound is returned when the requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound

func New() *Memory {
	return &Memory{
		run: newRunRepository(),
	}
}

func (m *Memory) Run() interfaces.RunRepository {
	return m.run
}

func (m *Memory) Close() error {
	return nil
}
