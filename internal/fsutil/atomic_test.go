package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	if err := AtomicWrite(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want hello", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("tmp file %s should not exist after successful write", e.Name())
		}
	}
}

func TestAtomicWrite_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	if err := AtomicWrite(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(path, []byte("v2"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestAtomicWrite_CreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude", "settings.json")
	if err := AtomicWrite(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	if !Exists(path) {
		t.Fatalf("expected %s to exist", path)
	}
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	now := time.Unix(1700000000, 0)

	dst, err := Backup(path, now)
	if err != nil || dst != "" {
		t.Fatalf("missing source should be a no-op, got %q %v", dst, err)
	}

	if err := os.WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dst, err = Backup(path, now)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if dst != path+".bak-1700000000" {
		t.Errorf("backup path = %s", dst)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != `{"a":1}` {
		t.Errorf("backup content = %q", got)
	}
}

func TestIsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.md")
	if err := os.WriteFile(path, []byte("# docs"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !IsFile(path) {
		t.Errorf("IsFile(%s) = false", path)
	}
	if IsFile(dir) {
		t.Errorf("directory should not count as a file")
	}
	if IsFile(filepath.Join(dir, "missing.md")) {
		t.Errorf("missing path should not count as a file")
	}
}
