package artifact

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/punchamoorthee/estatedocs/internal/domain"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
	bufSize  = 64 * 1024
)

// FileStore keeps artifacts as files directly under one directory.
type FileStore struct {
	root string
}

// NewFileStore creates root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrStorage, root, err)
	}
	return &FileStore{root: root}, nil
}

// Root is the artifact directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Put writes data to a temp file in the same directory, syncs it and renames
// it into place.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, filePerm)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, name, err)
	}

	bw := bufio.NewWriterSize(tmp, bufSize)
	if _, err := io.Copy(bw, bytes.NewReader(data)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", domain.ErrStorage, name, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorage, name, err)
	}
	return nil
}

func (s *FileStore) Open(ctx context.Context, name string) (*Object, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, name, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, domain.ErrArtifactNotFound
	}
	return &Object{
		ReadSeekCloser: f,
		Info:           domain.ArtifactInfo{Name: name, Size: st.Size(), ModTime: st.ModTime()},
	}, nil
}

func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, name, err)
	}
}

func (s *FileStore) Remove(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorage, name, err)
	}
	return nil
}

// List returns the visible artifacts under the root, skipping temp files,
// markers and directories.
func (s *FileStore) List(ctx context.Context) ([]domain.ArtifactInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", domain.ErrStorage, s.root, err)
	}
	var out []domain.ArtifactInfo
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || ValidateName(e.Name()) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, domain.ArtifactInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}
