package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// bearerToken extracts the backend session token from the Authorization
// header. An empty string means the request is anonymous.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// sessionID derives a stable flow-state key from the token. The raw token
// never ends up in Redis keys or logs.
func sessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
