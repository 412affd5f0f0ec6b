package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/publication"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// seed заполняет хранилище данными для ручной проверки.
// Уведомления при этом не отправляются: запись идет мимо сервиса.
func seed(ctx context.Context, s storage.Storage, log *slog.Logger) error {
	var clock publication.Clock

	// 1. Модератор и автор, пароль: <логин>-password
	users := map[string]*domain.User{}
	for _, u := range []*domain.User{
		{Username: "admin", Email: "admin@example.com", IsStaff: true},
		{Username: "writer", Email: "writer@example.com", FirstName: "Jane"},
	} {
		hash, err := auth.HashPassword(u.Username + "-password")
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		created, err := s.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
		users[u.Username] = created
	}
	author := users["writer"].ID

	// 2. Опубликованный пост
	post, err := s.CreatePost(ctx, &domain.Post{
		AuthorID:        author,
		Heading:         "Hello, MyBlog",
		ShortDefinition: "First post on the site",
		Text:            "Posts are public once published. Comments wait for moderation.",
		Image:           domain.DefaultImage,
		IsPublished:     true,
		PubDate:         clock.Stamp(time.Time{}),
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	// 3. Одобренный комментарий и комментарий на модерации
	for _, c := range []*domain.Comment{
		{PostID: post.ID, Author: "guest", Text: "Nice post!", IsPublished: true},
		{PostID: post.ID, Author: "guest2", Text: "Waiting for moderation"},
	} {
		c.PubDate = clock.Stamp(time.Time{})
		if _, err := s.CreateComment(ctx, c); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}

	// 4. Черновик: виден только автору
	draft, err := s.CreatePost(ctx, &domain.Post{
		AuthorID:        author,
		Heading:         "Draft",
		ShortDefinition: "Not published yet",
		Text:            "Only the author sees this one.",
		Image:           domain.DefaultImage,
		PubDate:         clock.Stamp(time.Time{}),
	})
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}

	log.Info("Mock data filled",
		"post_id", post.ID,
		"draft_id", draft.ID,
		"staff", "admin")
	return nil
}
