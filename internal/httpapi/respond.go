package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

const flashCookie = "blog_flash"

// Уровни флеш-сообщений.
const (
	levelSuccess = "success"
	levelWarning = "warning"
)

// Flash - одноразовое сообщение для следующей страницы.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError - единая точка преобразования ошибок в ответы.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		// форма с ошибками отдается как обычная страница
		writeJSON(w, http.StatusOK, map[string]any{"errors": ve.Fields})
	case errors.Is(err, domain.ErrAuthRequired):
		http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
	default:
		s.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
	}
}

// redirect отправляет на target с флеш-сообщением.
func redirect(w http.ResponseWriter, r *http.Request, target string, flash *Flash) {
	if flash != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    url.QueryEscape(flash.Level + ":" + flash.Message),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// takeFlash читает и сбрасывает флеш-сообщение.
func takeFlash(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return []Flash{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return []Flash{}
	}
	level, msg, ok := strings.Cut(raw, ":")
	if !ok {
		return []Flash{}
	}
	return []Flash{{Level: level, Message: msg}}
}

// pathID разбирает {id} из маршрута. Некорректный ID - это 404.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrNotFound
	}
	return uint(id), nil
}

// formBool понимает значения чекбоксов и радиокнопок.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
