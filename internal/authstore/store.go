// Package authstore manages the on-disk WhatsApp session credential
// directory. The store treats every file as opaque bytes; the session
// database and whatever else the transport persists all live under one
// root so the whole set can be exported and re-imported as a unit.
package authstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is a directory of opaque credential files.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is not created until
// the first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store root path.
func (s *Store) Dir() string { return s.dir }

// SessionDB returns the path of the transport session database inside
// the store root.
func (s *Store) SessionDB() string {
	return filepath.Join(s.dir, "session.db")
}

// List returns the names of all regular files directly under the store
// root. A missing root yields an empty list and no error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credential dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Empty reports whether the store has no regular files (or no root at all).
func (s *Store) Empty() bool {
	names, err := s.List()
	return err != nil || len(names) == 0
}

// ReadFile reads one credential file by name.
func (s *Store) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

// WriteFile writes one credential file, creating the store root if needed.
func (s *Store) WriteFile(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return fmt.Errorf("write credential file %s: %w", name, err)
	}
	return nil
}
