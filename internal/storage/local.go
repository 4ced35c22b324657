package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"
)

// LocalStorage stores each entry as a regular file directly under a root
// directory. It holds no lock of its own: Put publishes through a temp file
// and an atomic rename, so readers see either the old or the new content.
type LocalStorage struct {
	root string
}

// Ensure LocalStorage implements StorageInterface and Sweeper
var (
	_ StorageInterface = (*LocalStorage)(nil)
	_ Sweeper          = (*LocalStorage)(nil)
)

// NewLocalStorage prepares root, creating it and any missing ancestors.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: storage root is required", ErrInitialization)
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrInitialization, root, err)
		}
		logrus.Infof("Created storage root %s", root)
	case err != nil:
		return nil, fmt.Errorf("%w: stat %s: %w", ErrInitialization, root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInitialization, root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrInitialization, root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrInitialization, root, err)
	}

	return &LocalStorage{root: resolved}, nil
}

// Root returns the absolute, symlink-free storage root.
func (s *LocalStorage) Root() string {
	return s.root
}

// path validates name and returns the file path it maps to. The securejoin
// result is only used to prove containment; operations act on the literal
// child path so that a symlink entry is replaced or reported, never followed.
func (s *LocalStorage) path(name string) (string, error) {
	if _, err := ValidateName(name); err != nil {
		return "", err
	}

	resolved, err := securejoin.SecureJoin(s.root, name)
	if err != nil {
		return "", fmt.Errorf("%w: %q cannot be resolved: %w", ErrInvalidName, name, err)
	}
	if filepath.Dir(resolved) != s.root {
		return "", fmt.Errorf("%w: %q resolves outside the storage root", ErrInvalidName, name)
	}

	return filepath.Join(s.root, name), nil
}

// Put atomically creates or replaces the entry called name.
func (s *LocalStorage) Put(name string, data []byte) (string, error) {
	target, err := s.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return "", fmt.Errorf("%w: create temp for %s: %w", ErrStorage, name, err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, data); err != nil {
		removeTemp(tmpName)
		return "", fmt.Errorf("%w: write %s: %w", ErrStorage, name, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		removeTemp(tmpName)
		return "", fmt.Errorf("%w: publish %s: %w", ErrStorage, name, err)
	}

	if err := syncDir(s.root); err != nil {
		logrus.Debugf("Failed to sync storage root after writing %s: %v", name, err)
	}

	logrus.Debugf("Stored %s (%d bytes)", name, len(data))
	return name, nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeTemp(name string) {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Failed to remove temp file %s: %v", name, err)
	}
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// List returns the names of all entries in lexicographic order.
func (s *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: read storage root: %w", ErrStorage, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		// Type comes from lstat, so symlinks and directories are skipped here.
		// Files dropped in by other tools under names Get would reject are
		// skipped too; temp files fall in that group via their reserved prefix.
		if !entry.Type().IsRegular() || !listable(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

// Get returns the full content of the entry called name.
func (s *LocalStorage) Get(name string) ([]byte, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}

	return readEntry(name, target)
}

// readEntry reads target through a single descriptor that is known to be a
// regular file, so a symlink or directory swapped in concurrently is never
// followed.
func readEntry(name, target string) ([]byte, error) {
	f, err := openEntry(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if errors.Is(err, errNotRegular) {
			return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrStorage, name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, name, err)
	}

	return data, nil
}

// Delete removes the entry called name. Removing an absent entry is an error.
func (s *LocalStorage) Delete(name string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}

	if err := s.requireRegular(name, target); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("%w: delete %s: %w", ErrStorage, name, err)
	}

	logrus.Debugf("Deleted %s", name)
	return nil
}

func (s *LocalStorage) requireRegular(name, target string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("%w: stat %s: %w", ErrStorage, name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
	}
	return nil
}

// SweepTempFiles removes temp files left behind by interrupted uploads.
// Files younger than maxAge may belong to a Put still in flight and are kept.
func (s *LocalStorage) SweepTempFiles(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("%w: read storage root: %w", ErrStorage, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isTempName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logrus.Warnf("Failed to sweep temp file %s: %v", entry.Name(), err)
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		logrus.Infof("Swept %d stale temp files from %s", removed, s.root)
	}
	return removed, nil
}
