package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/punchamoorthee/estatedocs/internal/domain"
)

const (
	markerDir         = ".tokens"
	lockFile          = ".lock"
	lockTimeout       = 3 * time.Second
	lockRetryInterval = 100 * time.Millisecond
)

// MarkerRegistry records reserved tokens as empty marker files next to the
// artifacts. A process-shared flock serializes reservations across workers.
// Tokens whose preview or final already exist in the store count as taken,
// so artifacts written before the registry existed are never overwritten.
type MarkerRegistry struct {
	mu    sync.Mutex // flock is per-process; goroutines queue here first
	dir   string
	lock  *flock.Flock
	store Store
}

// NewMarkerRegistry keeps markers under root/.tokens.
func NewMarkerRegistry(root string, store Store) (*MarkerRegistry, error) {
	dir := filepath.Join(root, markerDir)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrStorage, dir, err)
	}
	return &MarkerRegistry{
		dir:   dir,
		lock:  flock.New(filepath.Join(dir, lockFile)),
		store: store,
	}, nil
}

func (r *MarkerRegistry) withLock(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := r.lock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("%w: acquire token lock: %v", domain.ErrStorage, err)
	}
	if !locked {
		return fmt.Errorf("%w: token lock timed out", domain.ErrStorage)
	}
	defer r.lock.Unlock()

	return fn()
}

func (r *MarkerRegistry) Reserve(ctx context.Context, pair domain.ArtifactPair) error {
	if err := ValidateName(pair.Token); err != nil {
		return err
	}
	return r.withLock(ctx, func() error {
		if r.store != nil {
			for _, name := range []string{pair.Preview, pair.Final} {
				exists, err := r.store.Exists(ctx, name)
				if err != nil {
					return err
				}
				if exists {
					return domain.ErrTokenTaken
				}
			}
		}

		f, err := os.OpenFile(filepath.Join(r.dir, pair.Token), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				return domain.ErrTokenTaken
			}
			return fmt.Errorf("%w: reserve %s: %v", domain.ErrStorage, pair.Token, err)
		}
		if _, err := f.WriteString(pair.DocumentType); err != nil {
			f.Close()
			return fmt.Errorf("%w: reserve %s: %v", domain.ErrStorage, pair.Token, err)
		}
		return f.Close()
	})
}

func (r *MarkerRegistry) Release(ctx context.Context, pair domain.ArtifactPair) error {
	if err := ValidateName(pair.Token); err != nil {
		return err
	}
	return r.withLock(ctx, func() error {
		err := os.Remove(filepath.Join(r.dir, pair.Token))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: release %s: %v", domain.ErrStorage, pair.Token, err)
		}
		return nil
	})
}

// MemoryRegistry is an in-process registry for tests and one-shot renders.
type MemoryRegistry struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{taken: make(map[string]struct{})}
}

func (m *MemoryRegistry) Reserve(ctx context.Context, pair domain.ArtifactPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.taken[pair.Token]; ok {
		return domain.ErrTokenTaken
	}
	m.taken[pair.Token] = struct{}{}
	return nil
}

func (m *MemoryRegistry) Release(ctx context.Context, pair domain.ArtifactPair) error {
	m.mu.Lock()
	delete(m.taken, pair.Token)
	m.mu.Unlock()
	return nil
}
