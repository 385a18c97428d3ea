package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/psaab/blockedit/pkg/config"
)

// AuthConfig holds authentication credentials for the API middleware.
type AuthConfig struct {
	Users   map[string]string // username -> password
	APIKeys map[string]bool   // valid API key tokens
}

// NewAuthConfig builds the middleware credentials from the API section of
// the configuration. It returns nil when no credentials are configured.
func NewAuthConfig(cfg config.APIConfig) *AuthConfig {
	if !cfg.AuthEnabled() {
		return nil
	}
	ac := &AuthConfig{
		Users:   make(map[string]string, len(cfg.Users)),
		APIKeys: make(map[string]bool, len(cfg.Keys)),
	}
	for user, pass := range cfg.Users {
		ac.Users[user] = pass
	}
	for _, k := range cfg.Keys {
		ac.APIKeys[k] = true
	}
	return ac
}

type principalKey struct{}

// Principal returns the authenticated caller of a request: the user name for
// Basic auth, "key" for token auth, and "" when authentication is off.
func Principal(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// authMiddleware wraps an http.Handler with Basic Auth / Bearer / X-API-Key checks.
// Requests to /health and /metrics bypass authentication.
func authMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if auth := r.Header.Get("Authorization"); auth != "" {
			if who, ok := checkAuthorization(auth, cfg); ok {
				next.ServeHTTP(w, withPrincipal(r, who))
				return
			}
		}

		if key := r.Header.Get("X-API-Key"); key != "" {
			if cfg.APIKeys[key] {
				next.ServeHTTP(w, withPrincipal(r, "key"))
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="blockedit API"`)
		writeJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "authentication required",
		})
	})
}

func withPrincipal(r *http.Request, who string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey{}, who))
}

// checkAuthorization validates an Authorization header value and returns
// the caller it identifies.
func checkAuthorization(auth string, cfg AuthConfig) (string, bool) {
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return "key", cfg.APIKeys[token]
	}

	if enc, ok := strings.CutPrefix(auth, "Basic "); ok {
		payload, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return "", false
		}
		user, pass, ok := strings.Cut(string(payload), ":")
		if !ok {
			return "", false
		}
		expected, exists := cfg.Users[user]
		if !exists {
			return "", false
		}
		return user, subtle.ConstantTimeCompare([]byte(pass), []byte(expected)) == 1
	}

	return "", false
}
