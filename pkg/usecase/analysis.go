package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
)

// SensitivityRequest selects the feature to sweep. An empty Feature means
// the highest-ranked feature of the analysis.
type SensitivityRequest struct {
	Feature string
	Options model.SensitivityOptions
}

// AnalysisRequest is one analysis invocation.
type AnalysisRequest struct {
	Label         string
	Baseline      model.BaselineParameters
	Seed          *uint64
	Sensitivity   *SensitivityRequest
	ExportSamples bool
}

// AnalysisResult carries the stored run, the full report (with raw samples)
// and the locations of written artifacts.
type AnalysisResult struct {
	Run       *model.Run
	Report    *model.RiskReport
	Artifacts []string
}

type AnalysisUseCase struct {
	repo      interfaces.Repository
	engine    *fair.Engine
	artifacts interfaces.ArtifactStore
	now       func() time.Time
}

func NewAnalysisUseCase(repo interfaces.Repository, engine *fair.Engine, artifacts interfaces.ArtifactStore, now func() time.Time) *AnalysisUseCase {
	if now == nil {
		now = time.Now
	}
	return &AnalysisUseCase{
		repo:      repo,
		engine:    engine,
		artifacts: artifacts,
		now:       now,
	}
}

func (uc *AnalysisUseCase) engineFor(seed *uint64) *fair.Engine {
	if seed != nil {
		return uc.engine.Seeded(*seed)
	}
	return uc.engine
}

// Features returns the feature catalog in registry order.
func (uc *AnalysisUseCase) Features() []model.SafetyFeature {
	return uc.engine.Registry().Features()
}

// Analyze runs the full pipeline: compute every feature, rank, optionally
// sweep one feature, persist the run and write artifacts.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	engine := uc.engineFor(req.Seed)

	report, err := engine.ComputeRiskWithRanges(ctx, req.Baseline)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute risk")
	}

	run := model.NewRun(req.Label, req.Baseline, report, uc.now())

	if req.Sensitivity != nil {
		feature := req.Sensitivity.Feature
		if feature == "" {
			feature = run.TopFeature()
		}

		result, err := engine.PerformSensitivityAnalysis(ctx, feature, report, req.Baseline, req.Sensitivity.Options)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to perform sensitivity analysis")
		}
		run.Sensitivity = result
	}

	if uc.repo != nil {
		if err := uc.repo.Run().Put(ctx, run); err != nil {
			return nil, goerr.Wrap(err, "failed to save run", goerr.V(RunIDKey, run.ID))
		}
	}

	result := &AnalysisResult{Run: run, Report: report}
	if uc.artifacts != nil {
		locations, err := writeArtifacts(ctx, uc.artifacts, run, report, req.ExportSamples)
		if err != nil {
			return nil, err
		}
		result.Artifacts = locations
	}

	logging.From(ctx).Info("analysis completed",
		"run_id", run.ID,
		"seed", report.Seed,
		"samples", report.Samples,
		"top_feature", run.TopFeature(),
		"artifacts", len(result.Artifacts),
	)

	return result, nil
}

// Sensitivity sweeps a feature of a stored run, reusing the run's baseline
// and seed, and stores the result on the run.
func (uc *AnalysisUseCase) Sensitivity(ctx context.Context, id model.RunID, req SensitivityRequest) (*model.SensitivityResult, error) {
	run, err := uc.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	feature := req.Feature
	if feature == "" {
		feature = run.TopFeature()
	}

	result, err := uc.engine.PerformSensitivityAnalysis(ctx, feature, run.Report, run.Baseline, req.Options)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to perform sensitivity analysis", goerr.V(RunIDKey, id))
	}

	run.Sensitivity = result
	run.UpdatedAt = uc.now()
	if err := uc.repo.Run().Put(ctx, run); err != nil {
		return nil, goerr.Wrap(err, "failed to save run", goerr.V(RunIDKey, id))
	}

	return result, nil
}

// GetRun loads a stored run.
func (uc *AnalysisUseCase) GetRun(ctx context.Context, id model.RunID) (*model.Run, error) {
	if uc.repo == nil {
		return nil, goerr.Wrap(ErrNoRepository, "cannot load run", goerr.V(RunIDKey, id))
	}

	run, err := uc.repo.Run().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get run", goerr.V(RunIDKey, id))
	}
	return run, nil
}

// ListRuns returns stored runs, newest first.
func (uc *AnalysisUseCase) ListRuns(ctx context.Context) ([]*model.Run, error) {
	if uc.repo == nil {
		return nil, goerr.Wrap(ErrNoRepository, "cannot list runs")
	}

	runs, err := uc.repo.Run().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list runs")
	}
	return runs, nil
}
