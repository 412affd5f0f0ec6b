package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UkralStul/blog-publication-service/internal/access"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// UserGetter - источник пользователей для восстановления сессии.
type UserGetter interface {
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
}

// Middleware кладет в контекст запроса access.Actor. Без валидной сессии
// актор анонимный, запрос при этом не отклоняется.
func (m *Manager) Middleware(users UserGetter, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := access.Anonymous()

			if c, err := r.Cookie(m.CookieName); err == nil && c.Value != "" {
				claims, err := m.Parse(c.Value)
				if err != nil {
					logger.Debug("Ignoring invalid session", "error", err)
					m.ClearCookie(w)
				} else if u, err := users.GetUserByID(r.Context(), claims.UserID); err == nil {
					actor = access.FromUser(u)
				} else {
					logger.Debug("Session user not found", "user_id", claims.UserID, "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), actor)))
		})
	}
}

// LoginURL - адрес входа с возвратом на next.
func LoginURL(next string) string {
	return "/login/?next=" + url.QueryEscape(next)
}

// RequireAuth перенаправляет анонимных пользователей на страницу входа.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.ActorFrom(r.Context()).Authenticated {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
