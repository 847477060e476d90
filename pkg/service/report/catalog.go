package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

func describeAdjustment(adj model.Adjustment) string {
	var parts []string
	if m := adj.EffectiveTEFMultiplier(); m != 1 {
		parts = append(parts, fmt.Sprintf("tef x%g", m))
	}

	factors := make([]types.FactorID, 0, len(adj.Factors))
	for f := range adj.Factors {
		factors = append(factors, f)
	}
	sort.Slice(factors, func(i, j int) bool { return factors[i] < factors[j] })
	for _, f := range factors {
		fa := adj.Factors[f]
		if fa.IsIdentity() {
			continue
		}
		if s := fa.EffectiveScale(); s != 1 {
			parts = append(parts, fmt.Sprintf("%s x%g", f, s))
		}
		if fa.Offset != 0 {
			parts = append(parts, fmt.Sprintf("%s %+g", f, fa.Offset))
		}
	}

	if adj.PrimaryLoss != nil {
		parts = append(parts, "primary loss "+adj.PrimaryLoss.String())
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// WriteFeatures lists the feature catalog with its factor adjustments.
func WriteFeatures(w io.Writer, features []model.SafetyFeature, opts ...Option) error {
	rows := make([][]string, 0, len(features))
	for _, f := range features {
		rows = append(rows, []string{string(f.ID), f.Name, describeAdjustment(f.Adjustment)})
	}

	o := newOptions(opts)
	o.top = 0
	return writeTable(w, []string{"ID", "Name", "Adjustments"}, rows, o)
}

// WriteRuns lists stored runs, one line each.
func WriteRuns(w io.Writer, runs []*model.Run, opts ...Option) error {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		label := run.Label
		if label == "" {
			label = "-"
		}
		var seed uint64
		var samples int
		if run.Report != nil {
			seed = run.Report.Seed
			samples = run.Report.Samples
		}
		rows = append(rows, []string{
			run.ID.String(),
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			label,
			fmt.Sprintf("%d", samples),
			fmt.Sprintf("%d", seed),
			run.TopFeature(),
		})
	}

	o := newOptions(opts)
	o.top = 0
	return writeTable(w, []string{"ID", "Created", "Label", "Samples", "Seed", "Top Feature"}, rows, o)
}
