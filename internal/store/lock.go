package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock is an exclusive inter-process lock backed by a file.
type FileLock struct {
	path string
	file *os.File
}

// TryLock acquires an exclusive lock on path without blocking.
func TryLock(path string) (*FileLock, error) {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}

	f, err := acquire(cleanPath)
	if err != nil {
		return nil, err
	}
	return &FileLock{path: cleanPath, file: f}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Unlock releases the lock. It is safe to call more than once.
func (l *FileLock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := release(l.path, l.file)
	l.file = nil
	return err
}
