// Package httpapi - HTTP-интерфейс блога на chi.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/cache"
	"github.com/UkralStul/blog-publication-service/internal/dataloader"
	"github.com/UkralStul/blog-publication-service/internal/feed"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// Deps - зависимости HTTP-сервера.
type Deps struct {
	Service     *blog.Service
	Store       storage.Storage
	Sessions    *auth.Manager
	Pages       cache.PageCache
	Feed        *feed.Observer
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	CORSOrigins []string
	// Health проверяет внешние зависимости для /healthz. Может быть nil.
	Health func(ctx context.Context) error
}

// Server - корневой HTTP-обработчик.
type Server struct {
	svc      *blog.Service
	sessions *auth.Manager
	feed     *feed.Observer
	logger   *slog.Logger
	health   func(ctx context.Context) error
	upgrader websocket.Upgrader
	router   chi.Router
}

// NewServer собирает роутер со всеми маршрутами.
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		svc:      d.Service,
		sessions: d.Sessions,
		feed:     d.Feed,
		logger:   d.Logger,
		health:   d.Health,
		upgrader: newUpgrader(d.CORSOrigins),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(newRequestMetrics(d.Registry).middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(d.Sessions.Middleware(d.Store, d.Logger))
	r.Use(dataloader.Middleware(d.Store))

	// Страницы с флеш-сообщением не кэшируются: сообщение показывается один раз
	skipFlash := func(r *http.Request) bool {
		c, err := r.Cookie(flashCookie)
		return err == nil && c.Value != ""
	}
	public := cache.Middleware(d.Pages, cache.Options{Skip: skipFlash})
	perActor := cache.Middleware(d.Pages, cache.Options{PerActor: true, Skip: skipFlash})

	r.With(public).Get("/", s.handleIndex)
	r.Post("/registration/", s.handleRegister)
	r.Post("/login/", s.handleLogin)
	r.Post("/logout/", s.handleLogout)

	r.With(public).Get("/posts/", s.handlePostList)
	r.Get("/post/{id}/details", s.handlePostDetails)
	r.Post("/post/{id}/details", s.handleCommentSubmit)
	r.Get("/post/{id}/all_comments/", s.handleCommentList)
	r.Get("/post/{id}/comments/live", s.handleLiveComments)
	r.Get("/profile/{id}/info/", s.handleAuthorInfo)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/profile/{id}/update/", s.handleProfileGet)
		r.Post("/profile/{id}/update/", s.handleProfileUpdate)
		r.Post("/profile/{id}/password/", s.handlePasswordChange)
		r.With(perActor).Get("/profile/{id}/my_posts/", s.handleMyPosts)
		r.Get("/profile/{id}/post_update/", s.handlePostEditGet)
		r.Post("/profile/{id}/post_update/", s.handlePostUpdate)
		r.Get("/post/{id}/create/", s.handlePostCreateForm)
		r.Post("/post/{id}/create/", s.handlePostCreate)
		r.Post("/post/{id}/delete/", s.handlePostDelete)
		r.Post("/moderation/comments/{id}/", s.handleModerateComment)
	})

	r.Get("/feedback/", s.handleFeedbackForm)
	r.Post("/feedback/", s.handleFeedbackSubmit)

	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// NormalizeOrigins разбирает список origin через запятую.
func NormalizeOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		for _, p := range strings.Split(o, ",") {
			if v := strings.TrimRight(strings.TrimSpace(p), "/"); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
