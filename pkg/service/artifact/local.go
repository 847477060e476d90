package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
)

// Local writes artifacts into a directory on the local filesystem
type Local struct {
	dir string
}

var _ interfaces.ArtifactStore = &Local{}

// NewLocal creates the directory if needed and returns a store rooted at it
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, goerr.New("output directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
	}
	return &Local{dir: dir}, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return goerr.New("invalid artifact name", goerr.V("name", name))
	}
	return nil
}

func (l *Local) Put(ctx context.Context, name string, contentType string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}

	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write artifact", goerr.V("path", path))
	}
	return nil
}

func (l *Local) Location(name string) string {
	return filepath.Join(l.dir, name)
}
