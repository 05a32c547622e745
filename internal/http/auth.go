package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// secretMatch performs a constant-time comparison of the X-Upload-Secret
// header against the configured secret. Returns true if no secret is
// configured.
func secretMatch(r *http.Request, expected string) bool {
	if expected == "" {
		return true
	}
	provided := r.Header.Get("X-Upload-Secret")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
