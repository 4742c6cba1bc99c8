// internal/app/system/auth/apikey.go

// Package auth guards the habit API with a static bearer key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/stratahabits/internal/app/system/jsonutil"
	"github.com/dalemusser/stratahabits/internal/app/system/network"
	"go.uber.org/zap"
)

// APIKeyAuth returns middleware that requires "Authorization: Bearer <key>".
//
// An empty validKey leaves the API open; a warning is logged once when the
// middleware is built. Failures answer 401 with a JSON error body.
func APIKeyAuth(validKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	if validKey == "" {
		logger.Warn("API key not configured - habit API is unauthenticated")
		return func(next http.Handler) http.Handler { return next }
	}
	want := []byte(validKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := bearerToken(r)
			if !ok {
				logger.Debug("API request rejected: missing or malformed Authorization header",
					zap.String("path", r.URL.Path))
				w.Header().Set("WWW-Authenticate", `Bearer realm="stratahabits"`)
				jsonutil.Unauthorized(w, "missing bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), want) != 1 {
				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", network.ClientIP(r)))
				jsonutil.Unauthorized(w, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
