package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// MarshalParameterSummary encodes the baseline in the legacy JSON layout
// (cf_range ... n_samples) so it can be fed back as a config file.
func MarshalParameterSummary(baseline model.BaselineParameters) ([]byte, error) {
	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal parameter summary")
	}
	return append(data, '\n'), nil
}

// WriteParameterSummary writes a human readable baseline description.
func WriteParameterSummary(w io.Writer, baseline model.BaselineParameters) error {
	lines := []string{"FAIR Risk Analysis Parameters", "============================="}
	for _, f := range types.AllFactors() {
		r := baseline.Range(f)
		desc := "fixed " + r.String()
		if !r.IsFixed() {
			desc = fmt.Sprintf("uniform %s (mid %.4g)", r.String(), r.Mid())
		}
		lines = append(lines, fmt.Sprintf("%-32s %s", f.Label()+" ("+f.String()+"):", desc))
	}
	lines = append(lines, fmt.Sprintf("%-32s %d", "Monte Carlo samples:", baseline.Samples))

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return goerr.Wrap(err, "failed to write parameter summary")
		}
	}
	return nil
}
