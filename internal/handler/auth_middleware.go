package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Raymond9734/estate-backoffice/internal/auth"
	"github.com/Raymond9734/estate-backoffice/internal/models"
	"github.com/Raymond9734/estate-backoffice/internal/service"
)

// AuthMiddleware resolves the caller's session through the auth provider
type AuthMiddleware struct {
	provider   auth.Provider
	cookieName string
	loginURL   string
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(provider auth.Provider, cookieName, loginURL string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		provider:   provider,
		cookieName: cookieName,
		loginURL:   loginURL,
		logger:     logger,
	}
}

// accessToken reads the bearer token, falling back to the session cookie
func (m *AuthMiddleware) accessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (m *AuthMiddleware) session(r *http.Request) (*auth.Session, error) {
	session, err := m.provider.GetSession(r.Context(), m.accessToken(r))
	if err != nil && !errors.Is(err, models.ErrUnauthorized) {
		loggerFromContext(r.Context(), m.logger).Error("session check failed",
			slog.String("error", err.Error()),
		)
	}
	return session, err
}

// RequirePage redirects to the login page when there is no session
func (m *AuthMiddleware) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.session(r)
		if err != nil {
			http.Redirect(w, r, m.loginURL, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// RequireAPI answers 401 when there is no session
func (m *AuthMiddleware) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.session(r)
		if err != nil {
			handleError(w, err, loggerFromContext(r.Context(), m.logger))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// SignOut ends the session upstream and clears the cookie
func (m *AuthMiddleware) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := m.provider.SignOut(r.Context(), m.accessToken(r)); err != nil {
		loggerFromContext(r.Context(), m.logger).Warn("sign out failed",
			slog.String("error", err.Error()),
		)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, m.loginURL, http.StatusSeeOther)
}

// sessionFromContext returns the session stored by the auth middleware
func sessionFromContext(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionKey).(*auth.Session)
	return session
}

// requestOwner returns the user id of the request session, or ""
func requestOwner(r *http.Request) string {
	if session := sessionFromContext(r.Context()); session != nil {
		return session.UserID
	}
	return ""
}

// ownerContext tags store adds made by the request with its user
func ownerContext(r *http.Request) context.Context {
	return service.WithOwner(r.Context(), requestOwner(r))
}
