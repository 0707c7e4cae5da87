package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/session"
	"github.com/JonMunkholm/fileops/internal/web/middleware"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "fileops_session"

type sessionKey struct{}

// withRequestMetadata adds the client address and user agent for the
// operation history.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if addr, ok := middleware.ClientAddr(r.RemoteAddr); ok {
		ip = addr.String()
	}
	return history.ContextWithClient(ctx, ip, r.UserAgent())
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// withSession resolves the browser session from its cookie, starting a new
// one when the cookie is missing or expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		sess, created := s.sessions.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			logging.FromContext(r.Context()).Debug("session started", "session_id", sess.ID)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = logging.WithSession(ctx, sess.ID)
		ctx = withRequestMetadata(ctx, r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
