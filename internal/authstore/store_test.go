package authstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	names, err := s.List()
	if err != nil {
		t.Fatalf("List on missing root: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no names, got %v", names)
	}
	if !s.Empty() {
		t.Error("missing root should count as empty")
	}
}

func TestWriteCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "auth")
	s := New(dir)

	if err := s.WriteFile("creds.json", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected store root to exist: %v", err)
	}
	if s.Empty() {
		t.Error("store with a file should not be empty")
	}
}

func TestListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.WriteFile("a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0700); err != nil {
		t.Fatal(err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "a" {
		t.Errorf("List = %v, want [a]", names)
	}
}

func TestSessionDBInsideRoot(t *testing.T) {
	s := New("/tmp/auth")
	if got := s.SessionDB(); got != filepath.Join("/tmp/auth", "session.db") {
		t.Errorf("SessionDB = %q", got)
	}
}
