package usecase

import (
	"time"

	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
)

type UseCases struct {
	repo      interfaces.Repository
	engine    *fair.Engine
	artifacts interfaces.ArtifactStore
	now       func() time.Time
	Analysis  *AnalysisUseCase
}

type Option func(*UseCases)

// WithEngine replaces the default engine (built-in catalog, random seed)
func WithEngine(engine *fair.Engine) Option {
	return func(uc *UseCases) {
		uc.engine = engine
	}
}

// WithArtifactStore enables writing report files after each analysis
func WithArtifactStore(store interfaces.ArtifactStore) Option {
	return func(uc *UseCases) {
		uc.artifacts = store
	}
}

// WithClock overrides time.Now for run timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New builds the use cases. repo may be nil, in which case runs are not
// persisted and run lookups fail with ErrNoRepository.
func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.engine == nil {
		uc.engine = fair.New()
	}

	uc.Analysis = NewAnalysisUseCase(repo, uc.engine, uc.artifacts, uc.now)

	return uc
}
