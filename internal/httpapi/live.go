package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	liveWriteWait    = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// newUpgrader пропускает запросы без Origin (не браузер), свой хост и
// origin из списка CORS. Сессия в cookie, так что чужой сайт подключаться
// не должен.
func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if allowed["*"] || allowed[strings.ToLower(origin)] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// handleLiveComments стримит комментарии поста в момент их публикации.
func (s *Server) handleLiveComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Проверяем, что пост существует и виден, прежде чем подписываться
	post, err := s.svc.GetPost(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Читаем только ради control-фреймов и обнаружения закрытия
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	comments := s.feed.Subscribe(ctx, post.ID)
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	s.logger.Debug("Live feed subscriber connected", "post_id", post.ID)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-comments:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(newCommentView(c)); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}
