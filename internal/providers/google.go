// Package providers holds the AI reply provider. Reply generation is
// plain request/response glue around a hosted text-generation API; it
// has no bearing on pairing or credential handoff.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	googleDefaultBase  = "https://us-central1-aiplatform.googleapis.com/v1"
	googleDefaultModel = "text-bison-001"

	// fallbackReply is returned on any provider failure so the chat
	// keeps flowing instead of surfacing an error to the group.
	fallbackReply = "Sorry, I couldn't process that message."
)

// Message is one turn of rolling chat context.
type Message struct {
	Role    string
	Content string
}

// personalityPrompts append a tone instruction to the user prompt.
var personalityPrompts = map[string]string{
	"friendly":  "Respond cheerfully with emojis.",
	"sarcastic": "Respond sarcastically but witty.",
	"formal":    "Respond politely and formally.",
}

// GoogleProvider calls the Vertex AI text prediction endpoint.
type GoogleProvider struct {
	apiKey  string
	apiBase string
	model   string
	project string
	client  *http.Client
}

// NewGoogleProvider creates the provider. Empty base/model fall back to
// the Vertex defaults.
func NewGoogleProvider(apiKey, apiBase, model, project string) *GoogleProvider {
	if apiBase == "" {
		apiBase = googleDefaultBase
	}
	if model == "" {
		model = googleDefaultModel
	}
	return &GoogleProvider{
		apiKey:  apiKey,
		apiBase: apiBase,
		model:   model,
		project: project,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// Reply generates a response for prompt given the rolling context and
// the chat's personality. Provider failures are logged and degrade to a
// canned apology; they never propagate.
func (p *GoogleProvider) Reply(ctx context.Context, prompt string, history []Message, personality string) string {
	tone := personalityPrompts[personality]

	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString(prompt)
	if tone != "" {
		sb.WriteString("\n")
		sb.WriteString(tone)
	}

	body := map[string]any{
		"instances":  []map[string]string{{"content": sb.String()}},
		"parameters": map[string]any{"temperature": 0.7, "maxOutputTokens": 500},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("ai: marshal request", "error", err)
		return fallbackReply
	}

	url := fmt.Sprintf("%s/projects/%s/locations/us-central1/publishers/google/models/%s:predict?key=%s",
		p.apiBase, p.project, p.model, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("ai: build request", "error", err)
		return fallbackReply
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Error("ai: request failed", "error", err)
		return fallbackReply
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		slog.Error("ai: bad response", "status", resp.StatusCode, "error", err)
		return fallbackReply
	}

	var parsed struct {
		Predictions []struct {
			Content string `json:"content"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Predictions) == 0 || parsed.Predictions[0].Content == "" {
		return "Sorry, I couldn't generate a response."
	}
	return parsed.Predictions[0].Content
}
