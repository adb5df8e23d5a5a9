// Package state persists the one piece of cross-run memory: the most
// recently used manual image.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/store"
)

// Selection is the persisted selection record.
type Selection struct {
	LastManualImage string `json:"last_manual_image,omitempty"`
}

// Store loads and saves the selection record.
type Store interface {
	Load(ctx context.Context) Selection
	Save(ctx context.Context, sel Selection) error
}

// FileStore keeps the selection in a small JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the selection. A missing, empty or corrupt file yields the
// zero Selection.
func (s *FileStore) Load(ctx context.Context) Selection {
	if ctx.Err() != nil {
		return Selection{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := store.ReadFile(s.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return Selection{}
	default:
		logging.Logger().Warn("read selection state failed", "path", s.path, "err", err)
		return Selection{}
	}
	if strings.TrimSpace(content) == "" {
		return Selection{}
	}

	var sel Selection
	if err := json.Unmarshal([]byte(content), &sel); err != nil {
		logging.Logger().Warn("selection state is corrupt, ignoring", "path", s.path, "err", err)
		return Selection{}
	}
	return sel
}

// Save overwrites the selection file wholesale.
func (s *FileStore) Save(ctx context.Context, sel Selection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encode selection state: %w", err)
	}
	encoded = append(encoded, '\n')
	if err := store.WriteFile(s.path, encoded); err != nil {
		return fmt.Errorf("write selection state: %w", err)
	}
	return nil
}

// ReadOnly wraps a store so saves are kept in memory only. Dry runs use
// it so they never move the persisted pointer.
func ReadOnly(inner Store) Store {
	return &readOnlyStore{inner: inner}
}

type readOnlyStore struct {
	inner Store
	mu    sync.Mutex
	saved *Selection
}

func (s *readOnlyStore) Load(ctx context.Context) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved != nil {
		return *s.saved
	}
	return s.inner.Load(ctx)
}

func (s *readOnlyStore) Save(ctx context.Context, sel Selection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = &sel
	return nil
}
