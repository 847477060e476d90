package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

// Option configures table rendering
type Option func(*options)

type options struct {
	color bool
	top   int
}

// WithColor highlights the header and the highest-risk rows
func WithColor(enabled bool) Option {
	return func(o *options) {
		o.color = enabled
	}
}

// WithHighlight sets how many top rows are highlighted (default 3)
func WithHighlight(n int) Option {
	return func(o *options) {
		o.top = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{top: 3}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// writeTable renders rows with tabwriter, then colors whole lines so the
// escape codes do not disturb column widths.
func writeTable(w io.Writer, header []string, rows [][]string, o *options) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return goerr.Wrap(err, "failed to write table header")
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return goerr.Wrap(err, "failed to write table row")
		}
	}
	if err := tw.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush table")
	}

	headerColor := color.New(color.Bold, color.Underline)
	topColor := color.New(color.FgRed, color.Bold)
	if o.color {
		headerColor.EnableColor()
		topColor.EnableColor()
	} else {
		headerColor.DisableColor()
		topColor.DisableColor()
	}

	scanner := bufio.NewScanner(&buf)
	for i := 0; scanner.Scan(); i++ {
		line := strings.TrimRight(scanner.Text(), " ")
		switch {
		case i == 0:
			line = headerColor.Sprint(line)
		case i <= o.top:
			line = topColor.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return goerr.Wrap(err, "failed to write table")
		}
	}
	return nil
}

// WriteSummaryTable writes {Feature, risk.mean, risk.median, risk.p5,
// risk.p95} ordered by descending median risk.
func WriteSummaryTable(w io.Writer, report *model.RiskReport, opts ...Option) error {
	rows := make([][]string, 0, len(report.Features))
	for _, f := range report.Ranking() {
		risk := f.Risk()
		rows = append(rows, []string{
			f.Name,
			formatMoney(risk.Mean),
			formatMoney(risk.Median),
			formatMoney(risk.P5),
			formatMoney(risk.P95),
		})
	}

	header := []string{"Feature", "risk.mean", "risk.median", "risk.p5", "risk.p95"}
	return writeTable(w, header, rows, newOptions(opts))
}

// WriteSensitivityTable writes one row per swept value.
func WriteSensitivityTable(w io.Writer, result *model.SensitivityResult, opts ...Option) error {
	if _, err := fmt.Fprintf(w, "Sensitivity of %s to %s (%s, %d samples per point)\n",
		result.Feature, result.Factor.Label(), result.Selection, result.Samples); err != nil {
		return goerr.Wrap(err, "failed to write sensitivity title")
	}

	rows := make([][]string, 0, len(result.Points))
	for _, p := range result.Points {
		rows = append(rows, []string{
			fmt.Sprintf("%.4g", p.Value),
			formatMoney(p.Risk.Mean),
			formatMoney(p.Risk.Median),
			formatMoney(p.Risk.P5),
			formatMoney(p.Risk.P95),
		})
	}

	o := newOptions(opts)
	o.top = 0
	header := []string{result.Factor.String(), "risk.mean", "risk.median", "risk.p5", "risk.p95"}
	if err := writeTable(w, header, rows, o); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Spread of median risk: %s\n", formatMoney(result.Spread()))
	if err != nil {
		return goerr.Wrap(err, "failed to write sensitivity spread")
	}
	return nil
}
