package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAttachmentStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("bb"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o700); err != nil {
		t.Fatal(err)
	}
	store := NewAttachmentStore(dir)

	list, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "a.txt" || list[1].Size != 2 {
		t.Fatalf("List = %+v", list)
	}

	if _, err := store.Path("a.txt"); err != nil {
		t.Errorf("Path(a.txt) err = %v", err)
	}
	for _, name := range []string{"", "../etc/passwd", "sub/x", ".hidden", ".."} {
		if _, err := store.Path(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
	if _, err := store.Path("missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := store.Path("sub"); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory err = %v, want ErrNotFound", err)
	}

	if err := store.Delete("a.txt"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestAttachmentStoreMissingDir(t *testing.T) {
	store := NewAttachmentStore(filepath.Join(t.TempDir(), "nope"))
	list, err := store.List()
	if err != nil || len(list) != 0 {
		t.Errorf("List = %v, %v", list, err)
	}
}
