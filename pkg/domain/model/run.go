package model

import (
	"time"

	"github.com/google/uuid"
)

// RunID is a UUID-based identifier for a stored analysis run
type RunID string

// NewRunID generates a new UUID v4 RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func (id RunID) String() string {
	return string(id)
}

// Run is a persisted analysis: the inputs, the summary report and any
// sensitivity sweeps performed on it. Raw samples are not persisted.
type Run struct {
	ID          RunID
	Label       string
	Baseline    BaselineParameters
	Report      *RiskReport
	Ranking     []string
	Sensitivity *SensitivityResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRun wraps a finished report into a Run with a fresh ID.
func NewRun(label string, baseline BaselineParameters, report *RiskReport, now time.Time) *Run {
	run := &Run{
		ID:        NewRunID(),
		Label:     label,
		Baseline:  baseline,
		Report:    report,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, f := range report.Ranking() {
		run.Ranking = append(run.Ranking, f.Name)
	}
	return run
}

// TopFeature returns the highest-ranked feature name, or empty when unknown.
func (r *Run) TopFeature() string {
	if len(r.Ranking) == 0 {
		return ""
	}
	return r.Ranking[0]
}
