package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/repository/memory"
	"github.com/secmon-lab/safetyrisk/pkg/service/artifact"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
)

func smallBaseline() model.BaselineParameters {
	return model.BaselineParameters{
		ContactFrequency:       model.Between(100, 200),
		ThreatCapability:       model.Between(5, 6),
		ResistanceStrength:     model.Between(4, 5),
		SecondaryLossFrequency: model.Between(0.1, 0.2),
		SecondaryLossMagnitude: model.Between(1000, 2000),
		Samples:                50,
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return now }
}

func TestAnalysisUseCase_Analyze(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	dir := t.TempDir()
	store, err := artifact.NewLocal(dir)
	gt.NoError(t, err).Required()

	uc := usecase.New(repo,
		usecase.WithEngine(fair.New(fair.WithWorkers(2))),
		usecase.WithArtifactStore(store),
		usecase.WithClock(fixedClock()),
	)

	seed := uint64(42)
	result, err := uc.Analysis.Analyze(ctx, usecase.AnalysisRequest{
		Label:         "weekly",
		Baseline:      smallBaseline(),
		Seed:          &seed,
		Sensitivity:   &usecase.SensitivityRequest{Options: model.SensitivityOptions{Points: 3}},
		ExportSamples: true,
	})
	gt.NoError(t, err).Required()

	t.Run("report and run", func(t *testing.T) {
		gt.Value(t, result.Report.Seed).Equal(seed)
		gt.Value(t, result.Run.Label).Equal("weekly")
		gt.Value(t, result.Run.CreatedAt).Equal(fixedClock()())
		gt.Array(t, result.Run.Ranking).Length(len(result.Report.Features))
		gt.Value(t, result.Run.Ranking[0]).Equal(result.Report.Top().Name)
	})

	t.Run("sensitivity on top feature", func(t *testing.T) {
		gt.Value(t, result.Run.Sensitivity).NotNil()
		gt.Value(t, result.Run.Sensitivity.Feature).Equal(result.Run.TopFeature())
		gt.Value(t, result.Run.Sensitivity.Factor).Equal(types.FactorResistanceStrength)
		gt.Array(t, result.Run.Sensitivity.Points).Length(3)
	})

	t.Run("run is persisted", func(t *testing.T) {
		stored, err := uc.Analysis.GetRun(ctx, result.Run.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Label).Equal("weekly")
		gt.Value(t, stored.Report.Seed).Equal(seed)
		gt.Bool(t, stored.Report.HasSamples()).False()

		runs, err := uc.Analysis.ListRuns(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, runs).Length(1)
	})

	t.Run("artifacts are written", func(t *testing.T) {
		gt.Array(t, result.Artifacts).Length(6)
		for _, name := range []string{
			usecase.ArtifactParameterSummaryJSON,
			usecase.ArtifactParameterSummaryText,
			usecase.ArtifactRiskSummary,
			usecase.ArtifactRiskResults,
			usecase.ArtifactSensitivity,
			usecase.ArtifactSamples,
		} {
			info, err := os.Stat(filepath.Join(dir, name))
			gt.NoError(t, err).Required()
			gt.Number(t, info.Size()).Greater(0)
		}
	})
}

func TestAnalysisUseCase_AnalyzeDeterministic(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(nil)

	seed := uint64(7)
	req := usecase.AnalysisRequest{Baseline: smallBaseline(), Seed: &seed}

	a, err := uc.Analysis.Analyze(ctx, req)
	gt.NoError(t, err).Required()
	b, err := uc.Analysis.Analyze(ctx, req)
	gt.NoError(t, err).Required()

	gt.Value(t, a.Report.Features).Equal(b.Report.Features)
	gt.Value(t, a.Run.Sensitivity).Nil()
	gt.Array(t, a.Artifacts).Length(0)
}

func TestAnalysisUseCase_AnalyzeErrors(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		req     usecase.AnalysisRequest
		wantErr error
	}{
		{
			name: "zero samples",
			req: usecase.AnalysisRequest{
				Baseline: smallBaseline().WithSamples(0),
			},
			wantErr: model.ErrInvalidConfiguration,
		},
		{
			name: "reversed range",
			req: usecase.AnalysisRequest{
				Baseline: smallBaseline().WithRange(types.FactorThreatCapability, model.Between(6, 5)),
			},
			wantErr: model.ErrInvalidRange,
		},
		{
			name: "unknown sensitivity feature",
			req: usecase.AnalysisRequest{
				Baseline:    smallBaseline(),
				Sensitivity: &usecase.SensitivityRequest{Feature: "Teleportation"},
			},
			wantErr: model.ErrUnknownFeature,
		},
		{
			name: "risk overflows",
			req: usecase.AnalysisRequest{
				Baseline: smallBaseline().
					WithRange(types.FactorContactFrequency, model.Between(1e160, 2e160)).
					WithRange(types.FactorSecondaryLossMagnitude, model.Between(1e160, 2e160)),
			},
			wantErr: model.ErrInvalidConfiguration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.New()
			uc := usecase.New(repo)
			_, err := uc.Analysis.Analyze(ctx, tc.req)
			gt.Error(t, err).Is(tc.wantErr)

			runs, err := repo.Run().List(ctx)
			gt.NoError(t, err)
			gt.Array(t, runs).Length(0)
		})
	}
}

func TestAnalysisUseCase_Sensitivity(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock()))

	seed := uint64(11)
	result, err := uc.Analysis.Analyze(ctx, usecase.AnalysisRequest{Baseline: smallBaseline(), Seed: &seed})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Run.Sensitivity).Nil()

	sens, err := uc.Analysis.Sensitivity(ctx, result.Run.ID, usecase.SensitivityRequest{
		Feature: "Trip Sharing",
		Options: model.SensitivityOptions{Factor: types.FactorThreatCapability, Points: 4},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, sens.Feature).Equal("Trip Sharing")
	gt.Value(t, sens.Values()[0]).Equal(5.0)
	gt.Value(t, sens.Values()[3]).Equal(6.0)

	stored, err := uc.Analysis.GetRun(ctx, result.Run.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Sensitivity).NotNil()
	gt.Value(t, stored.Sensitivity.Factor).Equal(types.FactorThreatCapability)

	t.Run("unknown run", func(t *testing.T) {
		_, err := uc.Analysis.Sensitivity(ctx, model.RunID("missing"), usecase.SensitivityRequest{})
		gt.Error(t, err).Is(memory.ErrNotFound)
	})
}

func TestAnalysisUseCase_NoRepository(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(nil)

	_, err := uc.Analysis.ListRuns(ctx)
	gt.Bool(t, errors.Is(err, usecase.ErrNoRepository)).True()

	_, err = uc.Analysis.GetRun(ctx, model.RunID("x"))
	gt.Error(t, err).Is(usecase.ErrNoRepository)
}

func TestAnalysisUseCase_Features(t *testing.T) {
	uc := usecase.New(nil)
	features := uc.Analysis.Features()
	gt.Number(t, len(features)).GreaterOrEqual(9)
	gt.Value(t, features[0].ID).Equal(fair.DefaultRegistry().Features()[0].ID)
}
