package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

type runRepository struct {
	mu   sync.RWMutex
	runs map[model.RunID]*model.Run
}

func newRunRepository() *runRepository {
	return &runRepository{
		runs: make(map[model.RunID]*model.Run),
	}
}

// copyRun creates a deep copy of a run. Raw samples are never kept.
func copyRun(run *model.Run) *model.Run {
	copied := &model.Run{
		ID:        run.ID,
		Label:     run.Label,
		Baseline:  run.Baseline,
		Ranking:   slices.Clone(run.Ranking),
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}

	if run.Report != nil {
		features := make([]model.FeatureResult, len(run.Report.Features))
		for i, f := range run.Report.Features {
			features[i] = model.FeatureResult{
				ID:         f.ID,
				Name:       f.Name,
				Components: maps.Clone(f.Components),
				Inputs:     maps.Clone(f.Inputs),
			}
		}
		copied.Report = model.NewRiskReport(run.Report.Seed, run.Report.Samples, features, nil)
	}

	if run.Sensitivity != nil {
		s := *run.Sensitivity
		s.Points = slices.Clone(run.Sensitivity.Points)
		copied.Sensitivity = &s
	}

	return copied
}

func (r *runRepository) Put(ctx context.Context, run *model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyRun(run)
	if stored.ID == "" {
		return goerr.New("run ID is required")
	}
	now := time.Now().UTC()
	if existing, ok := r.runs[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.runs[stored.ID] = stored
	return nil
}

func (r *runRepository) Get(ctx context.Context, id model.RunID) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "run not found", goerr.V("id", id))
	}

	return copyRun(run), nil
}

func (r *runRepository) List(ctx context.Context) ([]*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*model.Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, copyRun(run))
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	return runs, nil
}

func (r *runRepository) Delete(ctx context.Context, id model.RunID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[id]; !exists {
		return goerr.Wrap(ErrNotFound, "run not found", goerr.V("id", id))
	}
	delete(r.runs, id)
	return nil
}
