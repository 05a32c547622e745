// Package whatsapp is the transport adapter around whatsmeow. It owns
// the socket lifecycle, feeds pairing and connection events into the
// session machine, and carries outbound messages (including the
// one-time upload token and chat replies).
//
// The session database lives inside the credential store directory so
// the whole directory can be exported as one bundle.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
	"github.com/nextlevelbuilder/deebot/internal/linked"
	"github.com/nextlevelbuilder/deebot/internal/providers"
	"github.com/nextlevelbuilder/deebot/internal/session"
	"github.com/nextlevelbuilder/deebot/internal/tts"
)

// Channel is the WhatsApp connection plus its chat glue.
type Channel struct {
	machine *session.Machine
	store   *authstore.Store
	linked  *linked.Registry
	ai      *providers.GoogleProvider
	voice   tts.Provider // nil disables voice replies
	owner   string

	client *whatsmeow.Client

	mu          sync.Mutex
	history     map[string][]providers.Message // chat JID → rolling context
	personality map[string]string              // chat JID → personality
}

// New creates the channel. The whatsmeow client is built in Run once
// the session database is open.
func New(machine *session.Machine, store *authstore.Store, reg *linked.Registry,
	ai *providers.GoogleProvider, voice tts.Provider, ownerJID string) *Channel {

	return &Channel{
		machine:     machine,
		store:       store,
		linked:      reg,
		ai:          ai,
		voice:       voice,
		owner:       ownerJID,
		history:     make(map[string][]providers.Message),
		personality: make(map[string]string),
	}
}

// Run opens the session store and connects. When no session exists it
// streams pairing codes from whatsmeow into the machine until one is
// scanned. Blocks until ctx is cancelled.
func (c *Channel) Run(ctx context.Context) error {
	dbLog := waLog.Stdout("session-db", "WARN", false)
	container, err := sqlstore.New(ctx, "sqlite",
		fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", c.store.SessionDB()),
		dbLog)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}

	c.client = whatsmeow.NewClient(device, waLog.Stdout("whatsapp", "INFO", false))
	c.client.AddEventHandler(func(evt any) { c.handleEvent(ctx, evt) })

	if c.client.Store.ID == nil {
		// Fresh device: request the QR channel before connecting.
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("request QR channel: %w", err)
		}
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go c.consumeQR(qrChan)
	} else {
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	<-ctx.Done()
	c.client.Disconnect()
	return nil
}

// consumeQR feeds pairing codes to the machine. whatsmeow re-emits a
// fresh code every ~20s until scanned; the machine dedupes identical
// ones itself.
func (c *Channel) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			c.machine.HandleCode(item.Code)
		case "success":
			slog.Info("QR scanned, pairing complete")
		default:
			slog.Warn("QR channel ended", "event", item.Event)
		}
	}
}

// handleEvent maps whatsmeow events onto session transitions and chat
// handling. Reconnect-after-drop is whatsmeow's own policy (automatic
// unless logged out); the machine only records the state.
func (c *Channel) handleEvent(ctx context.Context, evt any) {
	switch e := evt.(type) {
	case *events.Connected:
		c.machine.HandleConnected(ctx, c)
	case *events.Disconnected:
		c.machine.HandleClosed()
	case *events.LoggedOut:
		slog.Warn("logged out by server, re-pair required", "reason", e.Reason)
		c.machine.HandleClosed()
	case *events.StreamError:
		slog.Error("stream error", "code", e.Code)
		c.machine.HandleClosed()
	case *events.JoinedGroup:
		c.handleJoinedGroup(ctx, e)
	case *events.Message:
		c.handleMessage(ctx, e)
	}
}

// SendText implements session.Sender.
func (c *Channel) SendText(ctx context.Context, jid, text string) error {
	to, err := types.ParseJID(jid)
	if err != nil {
		return fmt.Errorf("parse jid %s: %w", jid, err)
	}
	_, err = c.client.SendMessage(ctx, to, &waProto.Message{
		Conversation: proto.String(text),
	})
	return err
}

// sendAudio uploads MP3 bytes and sends them as a voice message.
func (c *Channel) sendAudio(ctx context.Context, to types.JID, audio []byte) error {
	up, err := c.client.Upload(ctx, audio, whatsmeow.MediaAudio)
	if err != nil {
		return fmt.Errorf("upload audio: %w", err)
	}
	_, err = c.client.SendMessage(ctx, to, &waProto.Message{
		AudioMessage: &waProto.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String("audio/mpeg"),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
	return err
}
