package bundle

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
)

func TestRoundTrip(t *testing.T) {
	src := authstore.New(filepath.Join(t.TempDir(), "auth"))
	files := map[string][]byte{
		"creds.json":  []byte(`{"noise":"key"}`),
		"session.db":  {0x53, 0x51, 0x4c, 0x69, 0x74, 0x65, 0x00, 0xff},
		"app-state.1": {},
	}
	for name, data := range files {
		if err := src.WriteFile(name, data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	b, err := Encode(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(b.Files) != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), len(b.Files))
	}

	dst := authstore.New(filepath.Join(t.TempDir(), "restored"))
	if err := Decode(b, dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for name, want := range files {
		got, err := dst.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s: round-trip mismatch", name)
		}
	}
}

func TestEncodeMissingStore(t *testing.T) {
	store := authstore.New(filepath.Join(t.TempDir(), "nope"))
	if _, err := Encode(store); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent store, got %v", err)
	}
}

func TestEncodeEmptyStore(t *testing.T) {
	dir := t.TempDir()
	if _, err := Encode(authstore.New(dir)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty store, got %v", err)
	}
}

func TestEncodeSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	store := authstore.New(dir)
	if err := store.WriteFile("creds.json", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0700); err != nil {
		t.Fatal(err)
	}

	b, err := Encode(store)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := b.Files["sub"]; ok {
		t.Error("expected subdirectory to be excluded from bundle")
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	store := authstore.New(filepath.Join(t.TempDir(), "auth"))
	b := &Bundle{Files: map[string]string{"creds.json": "not!!base64"}}

	if err := Decode(b, store); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDecodeDoesNotRollBackEarlierWrites(t *testing.T) {
	store := authstore.New(filepath.Join(t.TempDir(), "auth"))

	// "aaaa" sorts before "bbbb"; decode order over a map is not fixed,
	// so seed the good entry first with its own decode.
	good := &Bundle{Files: map[string]string{
		"good.json": base64.StdEncoding.EncodeToString([]byte("kept")),
	}}
	if err := Decode(good, store); err != nil {
		t.Fatalf("decode good: %v", err)
	}

	bad := &Bundle{Files: map[string]string{"bad.json": "%%%"}}
	if err := Decode(bad, store); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}

	data, err := store.ReadFile("good.json")
	if err != nil || string(data) != "kept" {
		t.Errorf("expected earlier write to survive a later failure, got %q, %v", data, err)
	}
}

func TestDecodeRejectsPathTraversal(t *testing.T) {
	store := authstore.New(filepath.Join(t.TempDir(), "auth"))
	payload := base64.StdEncoding.EncodeToString([]byte("evil"))

	for _, name := range []string{"../escape", "a/b", "..", "."} {
		b := &Bundle{Files: map[string]string{name: payload}}
		if err := Decode(b, store); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("name %q: expected ErrInvalidPayload, got %v", name, err)
		}
	}
}

func TestDecodeOverwritesExistingFiles(t *testing.T) {
	store := authstore.New(filepath.Join(t.TempDir(), "auth"))
	if err := store.WriteFile("creds.json", []byte("old")); err != nil {
		t.Fatal(err)
	}

	b := &Bundle{Files: map[string]string{
		"creds.json": base64.StdEncoding.EncodeToString([]byte("new")),
	}}
	if err := Decode(b, store); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, _ := store.ReadFile("creds.json")
	if string(data) != "new" {
		t.Errorf("expected overwrite, got %q", data)
	}
}
