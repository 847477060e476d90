package artifact

import (
	"context"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"google.golang.org/api/option"
)

// GCS writes artifacts as objects under bucket/prefix
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ArtifactStore = &GCS{}

// NewGCS connects to Cloud Storage with Application Default Credentials,
// or with credentialsFile when it is not empty.
func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client", goerr.V("bucket", bucket))
	}

	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCS) objectName(name string) string {
	if g.prefix == "" {
		return name
	}
	return path.Join(g.prefix, name)
}

func (g *GCS) Put(ctx context.Context, name string, contentType string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}

	object := g.objectName(name)
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write GCS object",
			goerr.V("bucket", g.bucket), goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize GCS object",
			goerr.V("bucket", g.bucket), goerr.V("object", object))
	}

	logging.From(ctx).Debug("artifact uploaded", "bucket", g.bucket, "object", object, "size", len(data))
	return nil
}

func (g *GCS) Location(name string) string {
	return "gs://" + g.bucket + "/" + g.objectName(name)
}

func (g *GCS) Close() error {
	return g.client.Close()
}
