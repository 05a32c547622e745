package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nextlevelbuilder/deebot/internal/bundle"
)

// maxUploadBody caps /upload-auth request bodies. Credential bundles
// are small; 50MB matches the reference limit.
const maxUploadBody = 50 << 20

// handleStatus reports the connection state for the scan page's initial
// fetch. Pure read, no side effects.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.machine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"connected": snap.Connected,
		"hasQR":     snap.HasCode,
		"qrTs":      snap.CodeTS,
	})
}

// handleQR serves the most recently rendered QR image. The no-cache
// headers matter: the image is regenerated in place on every new code.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.qrPath); err != nil {
		http.Error(w, "QR not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	http.ServeFile(w, r, s.qrPath)
}

// handleEvents upgrades the request to an SSE stream fed by the hub.
// The subscription is removed when the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "\n")
	flusher.Flush()

	id, ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				slog.Error("failed to marshal event payload", "event", ev.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// handleDownload encodes the credential store as a downloadable bundle.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	b, err := bundle.Encode(s.store)
	if err != nil {
		if errors.Is(err, bundle.ErrNotFound) {
			http.Error(w, "no credentials to download", http.StatusNotFound)
			return
		}
		slog.Error("download-auth failed", "error", err)
		http.Error(w, "failed to prepare auth bundle", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="auth_bundle.json"`)
	json.NewEncoder(w).Encode(b)
}

// handleUpload receives a credential bundle from the other host. The
// request must carry the current upload token as a bearer credential
// and, when configured, the shared upload secret. The token is consumed
// only after the whole bundle decoded successfully, so a failed upload
// can be retried within the TTL. Nothing is written on any auth failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	provided := extractBearerToken(r)
	if provided == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if !s.tokens.Validate(provided) {
		http.Error(w, "invalid or expired token", http.StatusForbidden)
		return
	}
	if !secretMatch(r, s.secret) {
		http.Error(w, "missing or invalid upload secret", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	var b bundle.Bundle
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(b.Files) == 0 {
		http.Error(w, "missing files", http.StatusBadRequest)
		return
	}

	if err := bundle.Decode(&b, s.store); err != nil {
		if errors.Is(err, bundle.ErrInvalidPayload) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("upload-auth write failed", "error", err)
		http.Error(w, "failed to write auth files", http.StatusInternalServerError)
		return
	}

	s.tokens.Consume()
	slog.Info("auth bundle uploaded", "files", len(b.Files))
	fmt.Fprint(w, "Auth uploaded — restart the service to use credentials")
}
