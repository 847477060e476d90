package usecase

import (
	"bytes"
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
)

// Artifact file names
const (
	ArtifactParameterSummaryJSON = "parameter_summary.json"
	ArtifactParameterSummaryText = "parameter_summary.txt"
	ArtifactRiskSummary          = "risk_summary.txt"
	ArtifactRiskResults          = "risk_results.json"
	ArtifactSensitivity          = "sensitivity.json"
	ArtifactSamples              = "risk_samples.csv"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeCSV  = "text/csv"
)

type artifact struct {
	name        string
	contentType string
	render      func() ([]byte, error)
}

func renderTo(fn func(*bytes.Buffer) error) func() ([]byte, error) {
	return func() ([]byte, error) {
		var buf bytes.Buffer
		if err := fn(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func writeArtifacts(ctx context.Context, store interfaces.ArtifactStore, run *model.Run, rpt *model.RiskReport, exportSamples bool) ([]string, error) {
	artifacts := []artifact{
		{
			name:        ArtifactParameterSummaryJSON,
			contentType: contentTypeJSON,
			render:      func() ([]byte, error) { return report.MarshalParameterSummary(run.Baseline) },
		},
		{
			name:        ArtifactParameterSummaryText,
			contentType: contentTypeText,
			render: renderTo(func(buf *bytes.Buffer) error {
				return report.WriteParameterSummary(buf, run.Baseline)
			}),
		},
		{
			name:        ArtifactRiskSummary,
			contentType: contentTypeText,
			render: renderTo(func(buf *bytes.Buffer) error {
				return report.WriteSummaryTable(buf, rpt)
			}),
		},
		{
			name:        ArtifactRiskResults,
			contentType: contentTypeJSON,
			render:      func() ([]byte, error) { return report.MarshalResults(rpt) },
		},
	}

	if run.Sensitivity != nil {
		artifacts = append(artifacts, artifact{
			name:        ArtifactSensitivity,
			contentType: contentTypeJSON,
			render:      func() ([]byte, error) { return report.MarshalSensitivity(run.Sensitivity) },
		})
	}

	if exportSamples {
		if !rpt.HasSamples() {
			return nil, goerr.Wrap(ErrNoSamples, "cannot export samples", goerr.V(RunIDKey, run.ID))
		}
		artifacts = append(artifacts, artifact{
			name:        ArtifactSamples,
			contentType: contentTypeCSV,
			render: renderTo(func(buf *bytes.Buffer) error {
				return report.WriteSamplesCSV(buf, rpt)
			}),
		})
	}

	locations := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		data, err := a.render()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render artifact", goerr.V(ArtifactKey, a.name))
		}
		if err := store.Put(ctx, a.name, a.contentType, data); err != nil {
			return nil, goerr.Wrap(err, "failed to write artifact", goerr.V(ArtifactKey, a.name))
		}
		locations = append(locations, store.Location(a.name))
	}

	return locations, nil
}
