package report

import (
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
)

var summaryNotes = []string{
	"This analysis uses the FAIR (Factor Analysis of Information Risk) methodology",
	"Monte Carlo simulation is used to handle input parameter ranges",
	"The results show expected annual loss for each safety feature",
	"Features with higher risk scores should be prioritized for implementation",
	"Sensitivity analysis shows which factors most influence risk outcomes",
}

var recommendations = []string{
	"Prioritize implementation of the highest risk features",
	"Focus on improving resistance strength for features with high vulnerability",
	"Consider both probability and impact when designing safety systems",
	"Use these results to inform resource allocation in the architecture design",
	"Implement monitoring for early detection of the most common threat events",
}

func writeList(w io.Writer, title string, items []string) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, item); err != nil {
			return err
		}
	}
	return nil
}

// WriteNotes writes the methodology summary and design recommendations.
func WriteNotes(w io.Writer) error {
	if err := writeList(w, "Risk Assessment Summary:", summaryNotes); err != nil {
		return goerr.Wrap(err, "failed to write summary notes")
	}
	if err := writeList(w, "Recommendations:", recommendations); err != nil {
		return goerr.Wrap(err, "failed to write recommendations")
	}
	return nil
}
