// Package http is the boundary service: the small web surface an
// operator uses to scan the pairing QR, watch connection state, and
// move the credential bundle between hosts.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
	"github.com/nextlevelbuilder/deebot/internal/bus"
	"github.com/nextlevelbuilder/deebot/internal/session"
	"github.com/nextlevelbuilder/deebot/internal/token"
)

// Server wires the HTTP handlers to the session machine, hub, token
// manager and credential store.
type Server struct {
	machine *session.Machine
	hub     *bus.Hub
	tokens  *token.Manager
	store   *authstore.Store
	qrPath  string
	secret  string // optional X-Upload-Secret value, "" disables the check

	http *http.Server
}

// NewServer builds the boundary service listening on addr.
func NewServer(addr string, machine *session.Machine, hub *bus.Hub,
	tokens *token.Manager, store *authstore.Store, qrPath, secret string) *Server {

	s := &Server{
		machine: machine,
		hub:     hub,
		tokens:  tokens,
		store:   store,
		qrPath:  qrPath,
		secret:  secret,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /qr.png", s.handleQR)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /download-auth", s.handleDownload)
	mux.HandleFunc("POST /upload-auth", s.handleUpload)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
