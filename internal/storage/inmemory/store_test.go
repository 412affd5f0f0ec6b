// internal/storage/inmemory/store_test.go

package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище, автора и один опубликованный пост для тестов
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Post) {
	store := New()
	ctx := context.Background()
	author, err := store.CreateUser(ctx, &domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{
		AuthorID:        author.ID,
		Heading:         "Test Post",
		ShortDefinition: "Short",
		Text:            "Content",
		IsPublished:     true,
		PubDate:         time.Now(),
	})
	require.NoError(t, err)
	return store, author, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, _, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Heading, retrieved.Heading)

	_, err = store.GetPostByID(ctx, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_CreatePost_UnknownAuthor(t *testing.T) {
	store := New()
	_, err := store.CreatePost(context.Background(), &domain.Post{AuthorID: 42, Text: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreateUser_DuplicateUsername(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.CreateUser(context.Background(), &domain.User{Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_UpdatePost_ReturnsBeforeAndAfter(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	draft, err := store.CreatePost(ctx, &domain.Post{AuthorID: author.ID, Heading: "Draft", Text: "t"})
	require.NoError(t, err)

	before, after, err := store.UpdatePost(ctx, draft.ID, func(p *domain.Post) error {
		p.IsPublished = true
		p.AuthorID = 777 // должно быть проигнорировано
		return nil
	})
	require.NoError(t, err)
	assert.False(t, before.IsPublished)
	assert.True(t, after.IsPublished)
	assert.Equal(t, author.ID, after.AuthorID)

	stored, err := store.GetPostByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublished)
}

func TestStore_UpdatePost_MutationErrorRollsBack(t *testing.T) {
	store, _, post := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, _, err := store.UpdatePost(ctx, post.ID, func(p *domain.Post) error {
		p.Heading = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Post", stored.Heading)
}

func TestStore_GetPublishedPosts_FiltersDrafts(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreatePost(ctx, &domain.Post{AuthorID: author.ID, Heading: "Draft", Text: "t", PubDate: time.Now()})
	require.NoError(t, err)

	posts, total, err := store.GetPublishedPosts(ctx, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)

	mine, total, err := store.GetPostsByAuthor(ctx, author.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)
}

func TestStore_Pagination(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		_, err := store.CreatePost(ctx, &domain.Post{
			AuthorID:    author.ID,
			Text:        "post",
			IsPublished: true,
			PubDate:     base.Add(time.Duration(i+1) * time.Minute),
		})
		require.NoError(t, err)
	}

	firstPage, total, err := store.GetPublishedPosts(ctx, storage.PaginationArgs{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	require.Len(t, firstPage, 3)
	assert.True(t, firstPage[0].PubDate.After(firstPage[1].PubDate))

	secondPage, _, err := store.GetPublishedPosts(ctx, storage.PaginationArgs{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, secondPage, 3)
	assert.NotEqual(t, firstPage[2].ID, secondPage[0].ID)

	empty, _, err := store.GetPublishedPosts(ctx, storage.PaginationArgs{Limit: 3, Offset: 30})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_Comments_OnlyPublishedAreListed(t *testing.T) {
	store, _, post := newTestStore(t)
	ctx := context.Background()

	c1, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "guest1", Text: "first"})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "guest2", Text: "second"})
	require.NoError(t, err)

	comments, total, err := store.GetPublishedComments(ctx, post.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, comments)

	before, after, err := store.UpdateComment(ctx, c1.ID, func(c *domain.Comment) error {
		c.IsPublished = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, before.IsPublished)
	assert.True(t, after.IsPublished)

	comments, total, err = store.GetPublishedComments(ctx, post.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, comments, 1)
	assert.Equal(t, "first", comments[0].Text)
}

func TestStore_CreateComment_PostNotFound(t *testing.T) {
	store := New()
	_, err := store.CreateComment(context.Background(), &domain.Comment{PostID: 5, Author: "a", Text: "b"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeletePost_CascadesComments(t *testing.T) {
	store, _, post := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "a", Text: "b"})
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, post.ID))

	_, err = store.GetCommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeletePost(ctx, post.ID), domain.ErrNotFound)
}

func TestStore_Stats(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &domain.User{Username: "admin", IsStaff: true})
	require.NoError(t, err)
	other, err := store.CreatePost(ctx, &domain.Post{AuthorID: author.ID, Heading: "Other", Text: "t", IsPublished: true})
	require.NoError(t, err)
	draft, err := store.CreatePost(ctx, &domain.Post{AuthorID: author.ID, Heading: "Secret draft", Text: "t"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{PostID: draft.ID, Author: "g", Text: "t"})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{PostID: other.ID, Author: "g", Text: "t"})
		require.NoError(t, err)
	}
	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, Author: "g", Text: "t"})
	require.NoError(t, err)

	stats, err := store.Stats(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(3), stats.Posts)
	assert.Equal(t, int64(9), stats.Comments)
	// черновик с большим числом комментариев в рейтинг не попадает
	require.Len(t, stats.MostCommented, 2)
	assert.Equal(t, other.ID, stats.MostCommented[0].PostID)
	assert.Equal(t, "Other", stats.MostCommented[0].Heading)
	assert.Equal(t, int64(3), stats.MostCommented[0].Comments)
	assert.Equal(t, post.ID, stats.MostCommented[1].PostID)
}

func TestStore_GetUsersByIDs(t *testing.T) {
	store, author, _ := newTestStore(t)

	users, err := store.GetUsersByIDs(context.Background(), []uint{author.ID, 404})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "alice", users[author.ID].Username)
}
