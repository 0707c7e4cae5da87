package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// APIKeyAuth checks the X-API-Key header against keys. With require false
// every request passes; with require true and no keys, every request fails.
func APIKeyAuth(keys []string, require bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !require {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				slog.Warn("auth: missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, authError{Error: "missing API key", Code: "AUTH001"})
			case !validKey(key, keys):
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, authError{Error: "invalid API key", Code: "AUTH002"})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// validKey compares against every key in constant time so the response
// time does not reveal which key (if any) matched.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
