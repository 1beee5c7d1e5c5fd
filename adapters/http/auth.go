package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpar/convreg/adapters/auth"
	"github.com/artpar/convreg/pkg/jsonapi"
	"github.com/artpar/convreg/ports"
	"github.com/rs/zerolog"
)

// AdminKeyHeader carries the admin key on mutating requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminCredentials are the credentials accepted on mutating requests.
// Empty fields disable that method; with both empty every request passes.
type AdminCredentials struct {
	KeyHash     string        // hash of the admin key
	TokenSecret string        // HS256 secret for bearer tokens
	TokenTTL    time.Duration // lifetime of issued tokens
}

// NewAdminAuthMiddleware rejects requests that carry neither a matching
// AdminKeyHeader nor a valid bearer token. Credentials are read per request
// so a config reload takes effect immediately.
func NewAdminAuthMiddleware(creds func() AdminCredentials, hasher ports.KeyHasher, clock ports.Clock, logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := creds()
			if c.KeyHash == "" && c.TokenSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			if bearer, ok := bearerToken(r); ok && c.TokenSecret != "" {
				ttl := c.TokenTTL
				if ttl <= 0 {
					ttl = time.Hour
				}
				tokens, err := auth.NewTokenService(c.TokenSecret, ttl, clock)
				if err == nil {
					var claims *auth.Claims
					if claims, err = tokens.Validate(bearer); err == nil {
						logger.Debug().Str("subject", claims.Subject).Str("path", r.URL.Path).Msg("admin token accepted")
						next.ServeHTTP(w, r)
						return
					}
				}
				logger.Warn().Err(err).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("invalid admin token")
				unauthorized(w, "invalid admin token", "Authorization")
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" || c.KeyHash == "" {
				unauthorized(w, "admin key or token required", AdminKeyHeader)
				return
			}
			if !hasher.Compare(c.KeyHash, key) {
				logger.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("invalid admin key")
				unauthorized(w, "invalid admin key", AdminKeyHeader)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[7:])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail, header string) {
	jsonapi.WriteError(w, jsonapi.NewError(http.StatusUnauthorized, "unauthorized", "Unauthorized").
		Detail(detail).
		Header(header).
		Build())
}
