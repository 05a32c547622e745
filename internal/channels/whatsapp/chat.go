package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nextlevelbuilder/deebot/internal/providers"
)

// historyLimit is the rolling context window kept per chat.
const historyLimit = 10

// voiceReplyChance is the probability that a reply also goes out as audio.
const voiceReplyChance = 0.4

const greeting = `👋 Hi! I'm @Dee — mention me with "@Dee" to chat.`

// handleJoinedGroup greets a group the bot was added to and shows the menu.
func (c *Channel) handleJoinedGroup(ctx context.Context, e *events.JoinedGroup) {
	c.setPersonality(e.JID.String(), "friendly")
	if err := c.SendText(ctx, e.JID.String(), greeting); err != nil {
		slog.Error("greeting failed", "chat", e.JID, "error", err)
		return
	}
	c.sendMenu(ctx, e.JID, true)
}

// handleMessage runs the command and mention glue for group messages.
func (c *Channel) handleMessage(ctx context.Context, e *events.Message) {
	if e.Info.IsFromMe || !e.Info.IsGroup {
		return
	}
	text := e.Message.GetConversation()
	if text == "" {
		text = e.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}

	chat := e.Info.Chat
	sender := e.Info.Sender.String()
	lower := strings.ToLower(text)

	switch {
	case lower == "@dee help" || lower == "@dee talk":
		c.sendMenu(ctx, chat, sender == c.owner)

	case strings.HasPrefix(lower, "@dee link"):
		parts := strings.Fields(text)
		if len(parts) < 3 {
			c.reply(ctx, chat, "Please provide your phone number: @Dee link <your-number>")
			return
		}
		c.linked.Link(sender, parts[2])
		c.reply(ctx, chat, fmt.Sprintf("✅ Your number %s is linked!", parts[2]))

	case strings.HasPrefix(lower, "@dee set personality "):
		p := strings.TrimPrefix(lower, "@dee set personality ")
		c.setPersonality(chat.String(), strings.TrimSpace(p))
		c.reply(ctx, chat, fmt.Sprintf("Personality set to %s.", strings.TrimSpace(p)))

	case lower == "@dee reset group":
		c.resetHistory(chat.String())
		c.reply(ctx, chat, "Group memory cleared.")

	case strings.Contains(lower, "@dee"):
		c.replyWithAI(ctx, chat, text)
	}
}

// replyWithAI runs one reply turn: push the prompt into the rolling
// context, ask the provider, answer in text and sometimes in voice.
func (c *Channel) replyWithAI(ctx context.Context, chat types.JID, text string) {
	prompt := strings.TrimSpace(strings.ReplaceAll(text, "@Dee", ""))
	prompt = strings.TrimSpace(strings.ReplaceAll(prompt, "@dee", ""))

	history, personality := c.pushHistory(chat.String(), providers.Message{Role: "user", Content: prompt})
	answer := c.ai.Reply(ctx, prompt, history, personality)
	c.pushHistory(chat.String(), providers.Message{Role: "assistant", Content: answer})

	c.reply(ctx, chat, answer)

	if c.voice != nil && rand.Float64() < voiceReplyChance {
		audio, err := c.voice.Synthesize(ctx, answer)
		if err != nil {
			slog.Error("voice synthesis failed", "error", err)
			return
		}
		if err := c.sendAudio(ctx, chat, audio); err != nil {
			slog.Error("voice reply failed", "chat", chat, "error", err)
		}
	}
}

// sendMenu sends the command list; owner commands only for the owner.
func (c *Channel) sendMenu(ctx context.Context, chat types.JID, owner bool) {
	var sb strings.Builder
	sb.WriteString("🎛️ @Dee Command Menu\n\nGeneral Commands:\n")
	sb.WriteString("• @dee help — show this menu\n")
	sb.WriteString("• @dee talk — chat with Dee\n")
	sb.WriteString("• @dee link <your-number> — link your phone number\n")
	if owner {
		sb.WriteString("\nOwner Commands:\n")
		sb.WriteString("• @dee reset group — clear memory\n")
		sb.WriteString("• @dee set personality friendly|sarcastic|formal\n")
	}
	c.reply(ctx, chat, sb.String())
}

func (c *Channel) reply(ctx context.Context, chat types.JID, text string) {
	if err := c.SendText(ctx, chat.String(), text); err != nil {
		slog.Error("reply failed", "chat", chat, "error", err)
	}
}

// pushHistory appends a turn to a chat's rolling context and returns a
// copy of the window plus the chat's personality.
func (c *Channel) pushHistory(chat string, msg providers.Message) ([]providers.Message, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := append(c.history[chat], msg)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	c.history[chat] = h

	p := c.personality[chat]
	if p == "" {
		p = "friendly"
	}

	out := make([]providers.Message, len(h))
	copy(out, h)
	return out, p
}

func (c *Channel) setPersonality(chat, p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personality[chat] = p
}

func (c *Channel) resetHistory(chat string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, chat)
}
