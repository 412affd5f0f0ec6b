package cache

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/UkralStul/blog-publication-service/internal/access"
)

// Options настраивают кэширующий middleware.
type Options struct {
	// PerActor добавляет в ключ ID пользователя (страницы за авторизацией).
	PerActor bool
	// Skip - запросы, которые не читаются из кэша и не сохраняются в него.
	Skip func(r *http.Request) bool
}

// Key строит ключ кэша: путь + отсортированный query (+ актор).
func Key(r *http.Request, perActor bool) string {
	key := r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	if perActor {
		actor := access.ActorFrom(r.Context())
		key += "#user=" + strconv.FormatUint(uint64(actor.UserID), 10)
	}
	return key
}

// Middleware отдает GET-ответы из кэша и сохраняет новые ответы 200.
// Ответы с Set-Cookie не кэшируются.
func Middleware(c PageCache, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || (opts.Skip != nil && opts.Skip(r)) {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r, opts.PerActor)
			if page, ok := c.Get(key); ok {
				for k, v := range page.Header {
					w.Header()[k] = v
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(page.Status)
				_, _ = w.Write(page.Body)
				return
			}

			w.Header().Set("X-Cache", "MISS")
			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK || ww.Header().Get("Set-Cookie") != "" {
				return
			}
			header := ww.Header().Clone()
			header.Del("X-Cache")
			c.Set(key, Page{Status: http.StatusOK, Header: header, Body: buf.Bytes()})
		})
	}
}
