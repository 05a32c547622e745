// Package tts synthesizes voice replies. Optional glue: when it fails
// the bot just answers in text.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const googleTTSBase = "https://texttospeech.googleapis.com/v1"

// Provider turns text into audio bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// GoogleProvider calls the Google Cloud text:synthesize endpoint.
type GoogleProvider struct {
	apiKey  string
	apiBase string
	voice   string // e.g. "en-US-Neural2-C"; empty lets the API pick by language
	client  *http.Client
}

// NewGoogleProvider creates the provider.
func NewGoogleProvider(apiKey, apiBase, voice string) *GoogleProvider {
	if apiBase == "" {
		apiBase = googleTTSBase
	}
	return &GoogleProvider{
		apiKey:  apiKey,
		apiBase: apiBase,
		voice:   voice,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// Synthesize returns MP3 bytes for text.
func (p *GoogleProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	voice := map[string]any{"languageCode": "en-US", "ssmlGender": "NEUTRAL"}
	if p.voice != "" {
		voice["name"] = p.voice
	}
	body := map[string]any{
		"input":       map[string]string{"text": text},
		"voice":       voice,
		"audioConfig": map[string]string{"audioEncoding": "MP3"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text:synthesize?key=%s", p.apiBase, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: status %d: %s", resp.StatusCode, data)
	}

	var parsed struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("tts: decode audio: %w", err)
	}
	return audio, nil
}
