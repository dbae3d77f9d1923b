package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/server/auth"
)

type ctxKey string

const sessionKey ctxKey = "session"

func sessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey).(*auth.Session)
	return s
}

// withSession attaches the session carried by the cookie, if it verifies.
// Requests without a valid cookie continue anonymously.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(common.SessionCookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.deps.Accounts.ParseSession(c.Value)
		if err != nil {
			s.logger.Debug(r.Context(), "session cookie rejected", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r.Context()) == nil {
			s.writeError(w, r, common.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin answers 404 to non-administrators so admin resources are not
// disclosed.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r.Context()); sess == nil || !sess.Admin {
			s.writeError(w, r, common.ErrorNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error(r.Context(), "panic in handler", "panic", p, "stack", string(debug.Stack()))
				s.writeError(w, r, common.ErrorInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects with 429 once the client exceeds the limiter's budget
// for the named action.
func (s *Server) rateLimited(action string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Limiter != nil && !s.deps.Limiter.Allow(r.Context(), action+":"+clientIP(r, s.opts.TrustedProxies)) {
			s.logger.Warn(r.Context(), "rate limit exceeded", "action", action, "client", clientIP(r, s.opts.TrustedProxies))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests, try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
