package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// newTestStore поднимает SQLite в памяти. Без cgo драйвер не работает - тогда тест пропускается.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := NewSQLite(dsn, Options{LogLevel: logger.Silent})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedPost(t *testing.T, s *Store, published bool) (*domain.User, *domain.Post) {
	t.Helper()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	post, err := s.CreatePost(ctx, &domain.Post{
		AuthorID:        user.ID,
		Heading:         "Hello",
		ShortDefinition: "short",
		Text:            "text",
		Image:           domain.DefaultImage,
		IsPublished:     published,
		PubDate:         time.Now().UTC(),
	})
	require.NoError(t, err)
	return user, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	s := newTestStore(t)
	_, post := seedPost(t, s, true)

	got, err := s.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Heading)

	_, err = s.GetPostByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	seedPost(t, s, true)

	_, err := s.CreateUser(context.Background(), &domain.User{Username: "alice", PasswordHash: "y"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_UpdatePost_BeforeAfter(t *testing.T) {
	s := newTestStore(t)
	user, post := seedPost(t, s, false)
	ctx := context.Background()

	before, after, err := s.UpdatePost(ctx, post.ID, func(p *domain.Post) error {
		p.IsPublished = true
		p.Heading = "Changed"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, before.IsPublished)
	assert.True(t, after.IsPublished)
	assert.Equal(t, user.ID, after.AuthorID)

	got, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	assert.Equal(t, "Changed", got.Heading)

	// false -> запись нулевого значения тоже должна сохраниться
	_, _, err = s.UpdatePost(ctx, post.ID, func(p *domain.Post) error {
		p.IsPublished = false
		return nil
	})
	require.NoError(t, err)
	got, err = s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestStore_PublishedListsAndStats(t *testing.T) {
	s := newTestStore(t)
	user, post := seedPost(t, s, true)
	ctx := context.Background()

	draft, err := s.CreatePost(ctx, &domain.Post{AuthorID: user.ID, Heading: "Draft", ShortDefinition: "s", Text: "t", PubDate: time.Now().UTC()})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := s.CreateComment(ctx, &domain.Comment{PostID: draft.ID, Author: "guest", Text: "hidden", PubDate: time.Now().UTC()})
		require.NoError(t, err)
	}

	posts, total, err := s.GetPublishedPosts(ctx, storage.PaginationArgs{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)

	count, err := s.CountPostsByAuthor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	c, err := s.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "guest", Text: "hi", PubDate: time.Now().UTC()})
	require.NoError(t, err)
	_, _, err = s.UpdateComment(ctx, c.ID, func(c *domain.Comment) error {
		c.IsPublished = true
		return nil
	})
	require.NoError(t, err)

	comments, total, err := s.GetPublishedComments(ctx, post.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, comments, 1)

	stats, err := s.Stats(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(2), stats.Posts)
	assert.Equal(t, int64(3), stats.Comments)
	// черновик не попадает в рейтинг, хотя комментариев у него больше
	require.Len(t, stats.MostCommented, 1)
	assert.Equal(t, post.ID, stats.MostCommented[0].PostID)
}

func TestStore_DeletePost_CascadesComments(t *testing.T) {
	s := newTestStore(t)
	_, post := seedPost(t, s, true)
	ctx := context.Background()

	c, err := s.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "guest", Text: "hi", PubDate: time.Now().UTC()})
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	_, err = s.GetCommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), domain.ErrNotFound)
}
