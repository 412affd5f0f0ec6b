// Package access решает, кто может читать и изменять посты и комментарии.
//
// Владение постом - единственное основание для записи. Чужой пост при попытке
// изменения выглядит как несуществующий (domain.ErrNotFound), чтобы не
// подтверждать его существование.
package access

import (
	"context"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// Actor - тот, кто выполняет запрос.
type Actor struct {
	UserID        uint
	Username      string
	Authenticated bool
	Staff         bool
}

// Anonymous возвращает неавторизованного посетителя.
func Anonymous() Actor { return Actor{} }

// FromUser строит Actor по пользователю из хранилища.
func FromUser(u *domain.User) Actor {
	if u == nil {
		return Anonymous()
	}
	return Actor{
		UserID:        u.ID,
		Username:      u.Username,
		Authenticated: true,
		Staff:         u.IsStaff || u.IsSuperuser,
	}
}

// Owns сообщает, является ли actor автором поста.
func (a Actor) Owns(p *domain.Post) bool {
	return a.Authenticated && p != nil && p.AuthorID == a.UserID
}

// CanReadPost: опубликованный пост видят все, черновик - автор и модераторы.
func CanReadPost(a Actor, p *domain.Post) bool {
	if p == nil {
		return false
	}
	return p.IsPublished || a.Owns(p) || (a.Authenticated && a.Staff)
}

// AuthorizePostCreate разрешает создание любому вошедшему пользователю.
func AuthorizePostCreate(a Actor) error {
	if !a.Authenticated {
		return domain.ErrAuthRequired
	}
	return nil
}

// AuthorizePostWrite проверяет право изменять или удалять пост.
func AuthorizePostWrite(a Actor, p *domain.Post) error {
	if !a.Authenticated {
		return domain.ErrAuthRequired
	}
	if !a.Owns(p) {
		return domain.ErrNotFound
	}
	return nil
}

// CanCreateComment: комментировать может кто угодно, комментарий уходит на модерацию.
func CanCreateComment(Actor) bool { return true }

// AuthorizeModeration разрешает публикацию комментариев только модераторам.
func AuthorizeModeration(a Actor) error {
	if !a.Authenticated {
		return domain.ErrAuthRequired
	}
	if !a.Staff {
		return domain.ErrForbidden
	}
	return nil
}

// CommentVisible: комментарий виден, если опубликован он сам и его пост.
func CommentVisible(c *domain.Comment, parent *domain.Post) bool {
	return c != nil && parent != nil && c.PostID == parent.ID && c.IsPublished && parent.IsPublished
}

type contextKey string

const actorKey = contextKey("actor")

// WithActor кладет actor в контекст запроса.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom извлекает actor из контекста; по умолчанию - аноним.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey).(Actor); ok {
		return a
	}
	return Anonymous()
}
