package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteFileAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.txt")

	if err := WriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestWriteFileReplacesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := WriteFile(path, []byte("new")); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("expected new, got %q", string(got))
	}
}

func TestWriteFileConcurrentLeavesOneWholeValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	values := []string{"aaaa", "bbbb", "cccc", "dddd"}

	var wg sync.WaitGroup
	for _, v := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := WriteFile(path, []byte(v)); err != nil {
				t.Errorf("write file: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	found := false
	for _, v := range values {
		if got == v {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected one complete value, got %q", got)
	}
}

func TestReadFileRequiresPath(t *testing.T) {
	if _, err := ReadFile("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestListFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.PNG", "c.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := ListFiles(dir, ".png", ".jpg")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilesMissingDir(t *testing.T) {
	got, err := ListFiles(filepath.Join(t.TempDir(), "missing"), ".png")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestTryLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "run.lock")

	first, err := TryLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := TryLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("second unlock should be a no-op: %v", err)
	}

	second, err := TryLock(path)
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	defer second.Unlock()
}
