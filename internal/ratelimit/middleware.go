package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// KeyFunc resolves the limiter key for a request.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over the limiter's ceiling with a fixed 429
// before any business logic runs.
func Middleware(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeyByIP keys on the client network address (chi's RealIP middleware has
// already rewritten RemoteAddr by the time this runs).
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// KeyByBearerOrIP keys on the identity embedded in a bearer token when one
// is present and decodable, else falls back to the network address. decode
// is an unverified-decode: the hint only has to be cheap, not trustworthy,
// and a malformed token must never fail the request here.
func KeyByBearerOrIP(decode func(token string) (int64, error)) KeyFunc {
	return func(r *http.Request) string {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			token := strings.TrimSpace(auth[len("Bearer "):])
			if token != "" {
				if id, err := decode(token); err == nil {
					return "user:" + strconv.FormatInt(id, 10)
				}
			}
		}
		return "ip:" + KeyByIP(r)
	}
}
