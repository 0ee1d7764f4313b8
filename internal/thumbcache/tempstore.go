package thumbcache

import (
	"os"
	"path/filepath"
	"sync"

	"pdf-pagetool/internal/logging"
)

// TempStore is the process-scoped directory backing cached bitmaps on
// disk. Every file it writes is tracked so Close removes exactly the
// files this process created, never a caller-supplied path. Orphans from
// a crashed predecessor are tolerated.
type TempStore struct {
	dir string

	mu    sync.Mutex
	files map[string]struct{}
}

// NewTempStore creates a fresh temp directory under parent (or the system
// temp dir when parent is empty).
func NewTempStore(parent string) (*TempStore, error) {
	dir, err := os.MkdirTemp(parent, "pdf-pagetool-")
	if err != nil {
		return nil, err
	}
	logging.Debug("TempStore: created %s", dir)
	return &TempStore{
		dir:   dir,
		files: make(map[string]struct{}),
	}, nil
}

// Dir returns the backing directory path.
func (t *TempStore) Dir() string {
	return t.dir
}

// Write persists the bitmap for a key and tracks the file for teardown.
func (t *TempStore) Write(key Key, data []byte) (string, error) {
	name := key.fileName()
	path := filepath.Join(t.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	t.mu.Lock()
	t.files[name] = struct{}{}
	t.mu.Unlock()
	return path, nil
}

// Remove deletes the backing file for a key, if this store created one.
func (t *TempStore) Remove(key Key) {
	name := key.fileName()

	t.mu.Lock()
	_, tracked := t.files[name]
	delete(t.files, name)
	t.mu.Unlock()

	if !tracked {
		return
	}
	if err := os.Remove(filepath.Join(t.dir, name)); err != nil && !os.IsNotExist(err) {
		logging.Warn("TempStore: failed to remove %s: %v", name, err)
	}
}

// Close removes every file this store created and then the directory
// itself.
func (t *TempStore) Close() error {
	t.mu.Lock()
	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	t.files = make(map[string]struct{})
	t.mu.Unlock()

	for _, name := range names {
		if err := os.Remove(filepath.Join(t.dir, name)); err != nil && !os.IsNotExist(err) {
			logging.Warn("TempStore: failed to remove %s: %v", name, err)
		}
	}

	err := os.Remove(t.dir)
	if err != nil && !os.IsNotExist(err) {
		// Directory not empty means a crashed writer left orphans; leave
		// them for the next startup sweep.
		logging.Warn("TempStore: failed to remove %s: %v", t.dir, err)
		return err
	}
	logging.Debug("TempStore: removed %s", t.dir)
	return nil
}
