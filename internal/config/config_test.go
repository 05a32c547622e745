package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":3000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.AuthDir != "./auth_info" {
		t.Errorf("AuthDir = %q", cfg.AuthDir)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deebot.yaml")
	data := []byte("listen: \":8080\"\nowner_jid: \"me@s.whatsapp.net\"\nupload_secret: \"s3cret\"\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.OwnerJID != "me@s.whatsapp.net" || cfg.UploadSecret != "s3cret" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deebot.yaml")
	if err := os.WriteFile(path, []byte("listen: \":8080\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9999")
	t.Setenv("SUPER_ADMIN_JID", "boss@s.whatsapp.net")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("expected PORT to win, got %q", cfg.Listen)
	}
	if cfg.OwnerJID != "boss@s.whatsapp.net" {
		t.Errorf("OwnerJID = %q", cfg.OwnerJID)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/deebot"

	if cfg.TokenPath() != "/var/lib/deebot/upload_token.json" {
		t.Errorf("TokenPath = %q", cfg.TokenPath())
	}
	if cfg.QRPath() != "/var/lib/deebot/whatsapp-qr.png" {
		t.Errorf("QRPath = %q", cfg.QRPath())
	}
	if cfg.LinkedPath() != "/var/lib/deebot/linkedNumbers.json" {
		t.Errorf("LinkedPath = %q", cfg.LinkedPath())
	}
}
