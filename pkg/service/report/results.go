package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

type resultsDocument struct {
	Seed     uint64                `json:"seed"`
	Samples  int                   `json:"samples"`
	Ranking  []string              `json:"ranking"`
	Features []model.FeatureResult `json:"features"`
}

// MarshalResults encodes the per-feature summaries plus the derived ranking.
func MarshalResults(report *model.RiskReport) ([]byte, error) {
	doc := resultsDocument{
		Seed:     report.Seed,
		Samples:  report.Samples,
		Features: report.Features,
	}
	for _, f := range report.Ranking() {
		doc.Ranking = append(doc.Ranking, f.Name)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal risk results")
	}
	return append(data, '\n'), nil
}

// MarshalSensitivity encodes a sensitivity result.
func MarshalSensitivity(result *model.SensitivityResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal sensitivity result")
	}
	return append(data, '\n'), nil
}

// WriteSamplesCSV writes every raw draw as feature,component,index,value in
// registry order. Inputs are written with their factor ID as component.
func WriteSamplesCSV(w io.Writer, report *model.RiskReport) error {
	if !report.HasSamples() {
		return goerr.New("report does not carry raw samples")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "component", "index", "value"}); err != nil {
		return goerr.Wrap(err, "failed to write CSV header")
	}

	for _, f := range report.Features {
		s, ok := report.FeatureSamples(string(f.ID))
		if !ok {
			continue
		}

		write := func(component string, v model.SampleVector) error {
			for i, x := range v {
				record := []string{f.Name, component, strconv.Itoa(i), strconv.FormatFloat(x, 'g', -1, 64)}
				if err := cw.Write(record); err != nil {
					return goerr.Wrap(err, "failed to write CSV record", goerr.V("feature", f.Name))
				}
			}
			return nil
		}

		for _, factor := range types.AllFactors() {
			if err := write(factor.String(), s.Inputs[factor]); err != nil {
				return err
			}
		}
		for _, c := range types.AllComponents() {
			if err := write(c.String(), s.Components[c]); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush CSV")
	}
	return nil
}
