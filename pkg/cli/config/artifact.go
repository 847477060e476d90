package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/service/artifact"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// DefaultOutputDir is where artifacts are written when nothing is configured
const DefaultOutputDir = "output"

// Artifact holds CLI flags for the artifact destination
type Artifact struct {
	outputDir       string
	gcsBucket       string
	gcsPrefix       string
	gcsCredentials  string
	disableArtifact bool
}

// Flags returns CLI flags for artifact configuration
func (a *Artifact) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory for report artifacts",
			Value:       DefaultOutputDir,
			Sources:     cli.EnvVars("SAFETYRISK_OUTPUT_DIR"),
			Destination: &a.outputDir,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Write artifacts to this Cloud Storage bucket instead of a local directory",
			Sources:     cli.EnvVars("SAFETYRISK_GCS_BUCKET"),
			Destination: &a.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix inside the bucket",
			Sources:     cli.EnvVars("SAFETYRISK_GCS_PREFIX"),
			Destination: &a.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account credentials file (default: application default credentials)",
			Sources:     cli.EnvVars("SAFETYRISK_GCS_CREDENTIALS"),
			Destination: &a.gcsCredentials,
		},
		&cli.BoolFlag{
			Name:        "no-artifacts",
			Usage:       "Do not write any artifact",
			Sources:     cli.EnvVars("SAFETYRISK_NO_ARTIFACTS"),
			Destination: &a.disableArtifact,
		},
	}
}

// Configure returns the artifact store and its cleanup function. fileDir is
// the output directory from the config file, used when --output-dir is not
// given explicitly. A nil store means artifacts are disabled.
func (a *Artifact) Configure(ctx context.Context, cmd *cli.Command, fileDir string) (interfaces.ArtifactStore, func(), error) {
	if a.disableArtifact {
		return nil, func() {}, nil
	}

	if a.gcsBucket != "" {
		store, err := artifact.NewGCS(ctx, a.gcsBucket, a.gcsPrefix, a.gcsCredentials)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize GCS artifact store")
		}
		logging.Default().Info("Writing artifacts to Cloud Storage",
			"bucket", a.gcsBucket,
			"prefix", a.gcsPrefix,
		)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Warn("failed to close GCS client", "error", err)
			}
		}, nil
	}

	dir := a.outputDir
	if !cmd.IsSet("output-dir") && fileDir != "" {
		dir = fileDir
	}
	if dir == "" {
		return nil, func() {}, nil
	}

	store, err := artifact.NewLocal(dir)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize local artifact store")
	}
	return store, func() {}, nil
}
