// Package linked keeps the registry of phone numbers users attach to
// their WhatsApp identity via the "@dee link" command.
package linked

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Registry is a JSON-file-backed map of sender JID → linked phone number.
type Registry struct {
	path    string
	mu      sync.Mutex
	numbers map[string]string
}

// NewRegistry loads the registry from path, starting empty when the
// file does not exist or cannot be parsed.
func NewRegistry(path string) *Registry {
	r := &Registry{path: path, numbers: make(map[string]string)}
	r.load()
	return r
}

// Link records (or replaces) the phone number for a sender and persists.
func (r *Registry) Link(jid, phone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[jid] = phone
	r.save()
	slog.Info("phone number linked", "jid", jid)
}

// Lookup returns the linked number for a sender.
func (r *Registry) Lookup(jid string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	phone, ok := r.numbers[jid]
	return phone, ok
}

func (r *Registry) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return // file doesn't exist yet
	}
	if err := json.Unmarshal(data, &r.numbers); err != nil {
		slog.Warn("malformed linked-numbers file, starting empty", "error", err)
		r.numbers = make(map[string]string)
	}
}

func (r *Registry) save() {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		slog.Error("linked: failed to create dir", "error", err)
		return
	}
	data, err := json.MarshalIndent(r.numbers, "", "  ")
	if err != nil {
		slog.Error("linked: failed to marshal registry", "error", err)
		return
	}
	if err := os.WriteFile(r.path, data, 0600); err != nil {
		slog.Error("linked: failed to write registry", "error", err)
	}
}
