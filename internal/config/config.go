// Package config loads the deebot configuration from an optional YAML
// file with environment-variable overrides. Environment always wins so
// hosting platforms (Render, Railway) can inject secrets without a
// config file on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// Listen is the HTTP listen address for the boundary service.
	Listen string `yaml:"listen"`
	// DataDir holds runtime state: the upload token file, the QR image
	// and the linked-numbers registry.
	DataDir string `yaml:"data_dir"`
	// AuthDir is the credential store root. The WhatsApp session
	// database lives inside it so the whole directory is portable.
	AuthDir string `yaml:"auth_dir"`
	// OwnerJID receives the one-time upload token over WhatsApp.
	OwnerJID string `yaml:"owner_jid"`
	// UploadSecret, when set, is additionally required as the
	// X-Upload-Secret header on /upload-auth.
	UploadSecret string `yaml:"upload_secret"`

	AI  AIConfig  `yaml:"ai"`
	TTS TTSConfig `yaml:"tts"`
}

// AIConfig configures the reply provider.
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base"`
	Model   string `yaml:"model"`
	Project string `yaml:"project"`
}

// TTSConfig configures optional voice replies.
type TTSConfig struct {
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base"`
	Voice   string `yaml:"voice"`
}

// Default returns the built-in defaults, matching the reference layout.
func Default() *Config {
	return &Config{
		Listen:   ":3000",
		DataDir:  "./data",
		AuthDir:  "./auth_info",
		OwnerJID: "27689828857@s.whatsapp.net",
	}
}

// Load reads path (if it exists) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("DEEBOT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DEEBOT_AUTH_DIR"); v != "" {
		cfg.AuthDir = v
	}
	if v := os.Getenv("SUPER_ADMIN_JID"); v != "" {
		cfg.OwnerJID = v
	}
	if v := os.Getenv("AUTH_UPLOAD_SECRET"); v != "" {
		cfg.UploadSecret = v
	}
	if v := os.Getenv("GOOGLE_AI_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("DEEBOT_AI_BASE"); v != "" {
		cfg.AI.APIBase = v
	}
	if v := os.Getenv("DEEBOT_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("GOOGLE_PROJECT_ID"); v != "" {
		cfg.AI.Project = v
	}
	if v := os.Getenv("DEEBOT_TTS_KEY"); v != "" {
		cfg.TTS.APIKey = v
	}
}

// TokenPath is the upload token file inside the data dir.
func (c *Config) TokenPath() string { return filepath.Join(c.DataDir, "upload_token.json") }

// QRPath is the rendered QR image inside the data dir.
func (c *Config) QRPath() string { return filepath.Join(c.DataDir, "whatsapp-qr.png") }

// LinkedPath is the linked-numbers registry inside the data dir.
func (c *Config) LinkedPath() string { return filepath.Join(c.DataDir, "linkedNumbers.json") }
