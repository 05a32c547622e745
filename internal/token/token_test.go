package token

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "upload_token.json"))
}

func TestIssueProducesHexToken(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !hexToken.MatchString(tok.Value) {
		t.Errorf("expected 32-char hex token, got %q", tok.Value)
	}
	remaining := tok.Remaining(time.Now())
	if remaining < 9*time.Minute || remaining > 10*time.Minute {
		t.Errorf("expected ~10m TTL, got %v", remaining)
	}
}

func TestIssueRefusesSecondToken(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := m.Issue()
	if err != ErrTokenExists {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}
	if second.Value != first.Value {
		t.Errorf("expected the outstanding token back, got a different one")
	}
}

func TestValidate(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"correct value", tok.Value, true},
		{"wrong value", "deadbeefdeadbeefdeadbeefdeadbeef", false},
		{"empty string", "", false},
		{"prefix only", tok.Value[:16], false},
	}
	for _, tt := range tests {
		if got := m.Validate(tt.candidate); got != tt.want {
			t.Errorf("%s: Validate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidateAfterExpiry(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if m.Validate(tok.Value) {
		t.Error("expected expired token to fail validation")
	}
	if _, ok := m.Current(); ok {
		t.Error("expected no current token after expiry")
	}
}

func TestExpiredSlotCanBeReissued(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Issue(); err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if _, err := m.Issue(); err != nil {
		t.Fatalf("expected reissue after expiry, got %v", err)
	}
}

func TestConsumeMakesTokenSingleUse(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.Consume()
	if m.Validate(tok.Value) {
		t.Error("expected consumed token to fail validation")
	}

	// Consume is idempotent.
	m.Consume()
}

func TestTokenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload_token.json")
	tok, err := NewManager(path).Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	reloaded := NewManager(path)
	if !reloaded.Validate(tok.Value) {
		t.Error("expected token to validate after manager restart")
	}
}

func TestMissingFileMeansNoToken(t *testing.T) {
	m := newTestManager(t)
	if m.Validate("anything") {
		t.Error("expected validation to fail with no token file")
	}
	if _, ok := m.Current(); ok {
		t.Error("expected no current token")
	}
}
