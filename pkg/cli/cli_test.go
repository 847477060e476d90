package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/safetyrisk/pkg/cli"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := cli.RunWithWriter(context.Background(), append([]string{"safetyrisk"}, args...), "test", &buf)
	return buf.String(), err
}

func TestRun_Analyze(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runCLI(t, "analyze",
		"--samples", "50",
		"--seed", "42",
		"--sensitivity-points", "3",
		"--export-samples",
		"--output-dir", outDir,
	)
	gt.NoError(t, err).Required()

	gt.String(t, out).Contains("FAIR Risk Analysis Parameters")
	gt.String(t, out).Contains("Seed: 42")
	gt.String(t, out).Contains("risk.median")
	gt.String(t, out).Contains("Sensitivity of")
	gt.String(t, out).Contains("Recommendations:")
	gt.String(t, out).Contains(filepath.Join(outDir, usecase.ArtifactRiskResults))
	gt.Bool(t, strings.Contains(out, "Run ID:")).False()

	for _, name := range []string{
		usecase.ArtifactParameterSummaryJSON,
		usecase.ArtifactParameterSummaryText,
		usecase.ArtifactRiskSummary,
		usecase.ArtifactRiskResults,
		usecase.ArtifactSensitivity,
		usecase.ArtifactSamples,
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		gt.NoError(t, err)
	}
}

func TestRun_Analyze_Deterministic(t *testing.T) {
	args := []string{"analyze", "--samples", "30", "--seed", "7", "--no-sensitivity", "--no-artifacts"}

	first, err := runCLI(t, args...)
	gt.NoError(t, err).Required()
	second, err := runCLI(t, args...)
	gt.NoError(t, err).Required()

	gt.Value(t, first).Equal(second)
	gt.Bool(t, strings.Contains(first, "Sensitivity of")).False()
}

func TestRun_Analyze_MemoryRepository(t *testing.T) {
	out, err := runCLI(t, "analyze", "--samples", "20", "--seed", "1", "--no-artifacts",
		"--no-sensitivity", "--repository-backend", "memory")
	gt.NoError(t, err).Required()
	gt.String(t, out).Contains("Run ID:")
}

func TestRun_Analyze_Errors(t *testing.T) {
	t.Run("zero samples", func(t *testing.T) {
		_, err := runCLI(t, "analyze", "--samples", "0", "--no-artifacts")
		gt.Error(t, err).Is(model.ErrInvalidRange)
	})

	t.Run("unknown feature", func(t *testing.T) {
		_, err := runCLI(t, "analyze", "--samples", "10", "--no-artifacts", "--feature", "Teleportation")
		gt.Error(t, err).Is(model.ErrUnknownFeature)
	})
}

func TestRun_Sensitivity(t *testing.T) {
	out, err := runCLI(t, "sensitivity",
		"--samples", "20",
		"--seed", "3",
		"--feature", "Trip Sharing",
		"--sensitivity-factor", "tc",
		"--sensitivity-points", "4",
	)
	gt.NoError(t, err).Required()
	gt.String(t, out).Contains("Sensitivity of Trip Sharing to Threat Capability")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// title, header, four points, spread
	gt.Array(t, lines).Length(7)
}

func TestRun_Sensitivity_RunWithoutRepository(t *testing.T) {
	_, err := runCLI(t, "sensitivity", "--samples", "10", "--run-id", "abc")
	gt.Error(t, err).Is(usecase.ErrNoRepository)
}

func TestRun_Features(t *testing.T) {
	out, err := runCLI(t, "features")
	gt.NoError(t, err).Required()
	gt.String(t, out).Contains("driver-background-checks")
	gt.String(t, out).Contains("Speed Monitoring")
}

func TestRun_RunsList_Memory(t *testing.T) {
	out, err := runCLI(t, "runs", "list", "--repository-backend", "memory")
	gt.NoError(t, err).Required()
	gt.String(t, out).Contains("No runs found")
}

func TestRun_RunsShow_NotFound(t *testing.T) {
	_, err := runCLI(t, "runs", "show", "--repository-backend", "memory", "--id", "missing")
	gt.Error(t, err).Is(interfaces.ErrNotFound)
}
