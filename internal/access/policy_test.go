package access

import (
	"context"
	"testing"

	"github.com/UkralStul/blog-publication-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

var (
	owner    = Actor{UserID: 1, Username: "alice", Authenticated: true}
	stranger = Actor{UserID: 2, Username: "bob", Authenticated: true}
	staff    = Actor{UserID: 3, Username: "mod", Authenticated: true, Staff: true}
	anon     = Anonymous()
)

func TestCanReadPost(t *testing.T) {
	published := &domain.Post{ID: 10, AuthorID: 1, IsPublished: true}
	draft := &domain.Post{ID: 11, AuthorID: 1}

	for _, a := range []Actor{owner, stranger, staff, anon} {
		assert.True(t, CanReadPost(a, published), "published post is public for %q", a.Username)
	}

	assert.True(t, CanReadPost(owner, draft))
	assert.True(t, CanReadPost(staff, draft))
	assert.False(t, CanReadPost(stranger, draft))
	assert.False(t, CanReadPost(anon, draft))
	assert.False(t, CanReadPost(owner, nil))
}

func TestAuthorizePostWrite(t *testing.T) {
	post := &domain.Post{ID: 10, AuthorID: 1}

	assert.NoError(t, AuthorizePostWrite(owner, post))
	assert.ErrorIs(t, AuthorizePostWrite(stranger, post), domain.ErrNotFound)
	assert.ErrorIs(t, AuthorizePostWrite(staff, post), domain.ErrNotFound)
	assert.ErrorIs(t, AuthorizePostWrite(anon, post), domain.ErrAuthRequired)
}

func TestAuthorizePostCreate(t *testing.T) {
	assert.NoError(t, AuthorizePostCreate(stranger))
	assert.ErrorIs(t, AuthorizePostCreate(anon), domain.ErrAuthRequired)
}

func TestAuthorizeModeration(t *testing.T) {
	assert.NoError(t, AuthorizeModeration(staff))
	assert.ErrorIs(t, AuthorizeModeration(owner), domain.ErrForbidden)
	assert.ErrorIs(t, AuthorizeModeration(anon), domain.ErrAuthRequired)
	assert.True(t, CanCreateComment(anon))
}

func TestCommentVisible(t *testing.T) {
	post := &domain.Post{ID: 7, IsPublished: true}
	draftPost := &domain.Post{ID: 8}

	assert.True(t, CommentVisible(&domain.Comment{PostID: 7, IsPublished: true}, post))
	assert.False(t, CommentVisible(&domain.Comment{PostID: 7}, post))
	assert.False(t, CommentVisible(&domain.Comment{PostID: 8, IsPublished: true}, draftPost))
	assert.False(t, CommentVisible(&domain.Comment{PostID: 8, IsPublished: true}, post), "comment of another post")
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, anon, ActorFrom(ctx))
	assert.Equal(t, owner, ActorFrom(WithActor(ctx, owner)))

	a := FromUser(&domain.User{ID: 5, Username: "root", IsSuperuser: true})
	assert.True(t, a.Staff)
	assert.True(t, a.Authenticated)
	assert.Equal(t, anon, FromUser(nil))
}
