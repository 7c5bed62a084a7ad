package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return strings.TrimSpace(k)
	}
	return ""
}

func hasKey(given string, set []string) bool {
	if given == "" {
		return false
	}
	for _, k := range set {
		if subtle.ConstantTimeCompare([]byte(k), []byte(given)) == 1 {
			return true
		}
	}
	return false
}

// RequireKey only permits requests presenting one of keys, as a bearer token or
// X-API-Key. With no keys configured every request passes (handy for local dev).
// The live-status probes themselves are never behind this.
func RequireKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if key == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden"}`))
		})
	}
}
