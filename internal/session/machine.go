// Package session tracks WhatsApp pairing progress and drives the
// side effects of each transition: rendering the QR code, minting the
// one-time upload token on first connect, and broadcasting state
// changes to web observers.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/nextlevelbuilder/deebot/internal/bus"
	"github.com/nextlevelbuilder/deebot/internal/token"
)

// State is the pairing progress of the WhatsApp session.
type State int

const (
	// StateAwaitingCode: no QR code has been received from the transport yet.
	StateAwaitingCode State = iota
	// StateCodeIssued: a QR code is rendered and waiting to be scanned.
	StateCodeIssued
	// StateConnected: the session is paired and the socket is open.
	StateConnected
	// StateClosed: the socket dropped; the transport decides whether to retry.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingCode:
		return "awaiting_code"
	case StateCodeIssued:
		return "code_issued"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sender delivers a text message through the paired channel itself.
// Implemented by the WhatsApp channel adapter.
type Sender interface {
	SendText(ctx context.Context, jid, text string) error
}

// Snapshot is a read-only view for the /status endpoint.
type Snapshot struct {
	State     State
	Connected bool
	HasCode   bool
	CodeTS    int64 // unix millis of the last QR render, 0 if none
}

// qrImageSize matches the 800px render of the reference UI.
const qrImageSize = 800

// Machine owns the connection state and the currently displayed QR code.
// All transitions run through the Handle* methods; readers use Snapshot.
type Machine struct {
	tokens   *token.Manager
	hub      *bus.Hub
	qrPath   string
	ownerJID string

	mu     sync.Mutex
	state  State
	code   string // current QR payload, "" when none
	codeTS int64  // unix millis of last render

	now func() time.Time // test hook
}

// New creates a machine in StateAwaitingCode. qrPath is the fixed
// location of the rendered QR image; ownerJID receives the upload token
// once the session connects.
func New(tokens *token.Manager, hub *bus.Hub, qrPath, ownerJID string) *Machine {
	return &Machine{
		tokens:   tokens,
		hub:      hub,
		qrPath:   qrPath,
		ownerJID: ownerJID,
		state:    StateAwaitingCode,
		now:      time.Now,
	}
}

// HandleCode processes a pairing code from the transport. A code
// byte-identical to the one already displayed is ignored so page
// refreshes and transport re-emits do not churn the QR. Render failures
// are logged but the transition still happens; the operator can retry
// through the web page.
func (m *Machine) HandleCode(code string) {
	m.mu.Lock()
	if code == m.code {
		m.mu.Unlock()
		slog.Debug("pairing code unchanged, reusing current render")
		return
	}
	m.code = code
	m.codeTS = m.now().UnixMilli()
	m.state = StateCodeIssued
	ts := m.codeTS
	m.mu.Unlock()

	if err := qrcode.WriteFile(code, qrcode.Medium, qrImageSize, m.qrPath); err != nil {
		slog.Warn("failed to write QR image", "path", m.qrPath, "error", err)
	} else {
		slog.Info("QR code rendered", "path", m.qrPath)
	}
	if qr, err := qrcode.New(code, qrcode.Low); err == nil {
		fmt.Print(qr.ToSmallString(false))
	}

	m.hub.Publish("code", map[string]any{"ts": ts})
}

// HandleConnected processes a successful pairing. In order: deliver a
// one-time upload token to the owner (only if none is outstanding),
// clear the QR so the web page flips to connected, then broadcast.
func (m *Machine) HandleConnected(ctx context.Context, sender Sender) {
	slog.Info("whatsapp connected")

	m.deliverToken(ctx, sender)

	m.mu.Lock()
	m.code = ""
	m.codeTS = m.now().UnixMilli()
	m.state = StateConnected
	m.mu.Unlock()

	if err := os.Remove(m.qrPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove QR image", "error", err)
	}

	m.hub.Publish("connected", nil)
}

// HandleClosed records a dropped connection. Reconnecting is the
// transport's decision, not the machine's.
func (m *Machine) HandleClosed() {
	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()

	slog.Warn("whatsapp connection closed")
	m.hub.Publish("cleared", nil)
}

// Snapshot returns the current state for the boundary service.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:     m.state,
		Connected: m.state == StateConnected,
		HasCode:   m.code != "",
		CodeTS:    m.codeTS,
	}
}

// deliverToken mints the upload token and sends it through the paired
// channel. Skipped while a prior token is still outstanding, so a flaky
// connection cannot spam the owner with fresh tokens. Any failure here
// is logged and the connect transition continues.
func (m *Machine) deliverToken(ctx context.Context, sender Sender) {
	if _, ok := m.tokens.Current(); ok {
		slog.Info("upload token already outstanding, not issuing another")
		return
	}

	t, err := m.tokens.Issue()
	if err != nil {
		slog.Error("failed to issue upload token", "error", err)
		return
	}

	minutes := int(t.Remaining(m.now()).Round(time.Minute).Minutes())
	text := fmt.Sprintf(
		"Dee bot upload token (one-time). Use it to upload auth_bundle.json within %d minutes:\n\n%s",
		minutes, t.Value)

	if sender == nil {
		slog.Warn("no sender available for token delivery")
		return
	}
	if err := sender.SendText(ctx, m.ownerJID, text); err != nil {
		slog.Error("failed to deliver upload token", "owner", m.ownerJID, "error", err)
		return
	}
	slog.Info("upload token sent to owner", "owner", m.ownerJID)
}
