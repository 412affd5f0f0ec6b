// Package feed рассылает только что опубликованные комментарии подписчикам
// поста (вебсокет /post/{id}/comments/live).
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// Observer хранит каналы подписчиков на комментарии.
type Observer struct {
	mu sync.RWMutex
	//   map[postID] map[subscriberID] channel
	subs map[uint]map[string]chan *domain.Comment
}

// NewObserver - конструктор наблюдателя.
func NewObserver() *Observer {
	return &Observer{
		subs: make(map[uint]map[string]chan *domain.Comment),
	}
}

// Subscribe регистрирует подписчика на комментарии поста. Подписка снимается
// при отмене ctx, после этого канал закрывается.
func (o *Observer) Subscribe(ctx context.Context, postID uint) <-chan *domain.Comment {
	ch := make(chan *domain.Comment, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan *domain.Comment)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if postSubs, ok := o.subs[postID]; ok {
			delete(postSubs, subID)
			if len(postSubs) == 0 {
				delete(o.subs, postID)
			}
		}
		close(ch)
		o.mu.Unlock()
	}()

	return ch
}

// Publish не блокируется: медленный подписчик пропускает комментарий.
// Возвращает число подписчиков, получивших комментарий.
func (o *Observer) Publish(c *domain.Comment) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	delivered := 0
	for _, ch := range o.subs[c.PostID] {
		select {
		case ch <- c:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers - число активных подписчиков поста.
func (o *Observer) Subscribers(postID uint) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
