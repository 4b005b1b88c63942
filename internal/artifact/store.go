package artifact

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/punchamoorthee/estatedocs/internal/domain"
)

// Store holds rendered artifacts in a flat namespace keyed by filename.
// Put is all-or-nothing: a failed Put never leaves a readable object.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (*Object, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
}

// Object is an open artifact. Callers must Close it.
type Object struct {
	io.ReadSeekCloser
	Info domain.ArtifactInfo
}

// ValidateName accepts a single, visible path element.
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") {
		return domain.ErrInvalidArtifactName
	}
	return nil
}
