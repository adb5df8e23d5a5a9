//go:build !unix

package store

import (
	"errors"
	"fmt"
	"os"
)

func acquire(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("create lock file %q: %w", path, err)
	}
	return f, nil
}

func release(path string, f *os.File) error {
	f.Close()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file %q: %w", path, err)
	}
	return nil
}
