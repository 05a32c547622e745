// Package bundle converts the credential store to and from a single
// transportable JSON record, so a session paired on one host can be
// carried to another.
package bundle

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
)

var (
	// ErrNotFound means the credential store is missing or has no files.
	ErrNotFound = errors.New("no credentials to bundle")
	// ErrInvalidPayload means a bundle entry is not valid base64.
	ErrInvalidPayload = errors.New("invalid bundle payload")
)

// Bundle maps credential file names to base64-encoded contents.
// This is the wire shape of /download-auth and /upload-auth.
type Bundle struct {
	Files map[string]string `json:"files"`
}

// Encode reads every regular file in the store and packs it into a bundle.
// Returns ErrNotFound when there is nothing to export.
func Encode(store *authstore.Store) (*Bundle, error) {
	names, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNotFound
	}
	b := &Bundle{Files: make(map[string]string, len(names))}
	for _, name := range names {
		data, err := store.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		b.Files[name] = base64.StdEncoding.EncodeToString(data)
	}
	return b, nil
}

// Decode unpacks a bundle into the store, overwriting files of the same
// name. Writes that completed before an error are not rolled back; the
// caller re-uploads the full bundle on failure.
func Decode(b *Bundle, store *authstore.Store) error {
	if b == nil || len(b.Files) == 0 {
		return fmt.Errorf("%w: no files in bundle", ErrInvalidPayload)
	}
	for name, encoded := range b.Files {
		// Entry names come from the network; only bare file names are
		// allowed inside the store root.
		if name != filepath.Base(name) || name == "." || name == ".." {
			return fmt.Errorf("%w: bad file name %q", ErrInvalidPayload, name)
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("%w: entry %s: %v", ErrInvalidPayload, name, err)
		}
		if err := store.WriteFile(name, data); err != nil {
			return err
		}
	}
	return nil
}
