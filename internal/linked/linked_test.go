package linked

import (
	"path/filepath"
	"testing"
)

func TestLinkAndLookup(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "linkedNumbers.json"))

	if _, ok := r.Lookup("a@s.whatsapp.net"); ok {
		t.Error("expected no link before Link")
	}

	r.Link("a@s.whatsapp.net", "27123456789")
	phone, ok := r.Lookup("a@s.whatsapp.net")
	if !ok || phone != "27123456789" {
		t.Errorf("Lookup = %q, %v", phone, ok)
	}

	r.Link("a@s.whatsapp.net", "27000000000")
	phone, _ = r.Lookup("a@s.whatsapp.net")
	if phone != "27000000000" {
		t.Errorf("expected re-link to replace, got %q", phone)
	}
}

func TestRegistryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkedNumbers.json")

	NewRegistry(path).Link("a@s.whatsapp.net", "27123456789")

	reloaded := NewRegistry(path)
	if phone, ok := reloaded.Lookup("a@s.whatsapp.net"); !ok || phone != "27123456789" {
		t.Errorf("expected link to persist, got %q, %v", phone, ok)
	}
}
