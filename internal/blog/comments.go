package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/access"
	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/notify"
	"github.com/UkralStul/blog-publication-service/internal/publication"
)

// SubmitComment принимает комментарий от любого посетителя. Комментарий
// всегда создается неопубликованным и ждет модерации.
func (s *Service) SubmitComment(ctx context.Context, postID uint, in CommentInput) (*domain.Comment, error) {
	actor := access.ActorFrom(ctx)
	if !access.CanCreateComment(actor) {
		return nil, domain.ErrForbidden
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	comment, err := s.store.CreateComment(ctx, &domain.Comment{
		Author:      in.Author,
		PostID:      postID,
		Text:        in.Text,
		IsPublished: false,
		PubDate:     s.clock.Stamp(time.Time{}),
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logger.Info("Comment submitted for moderation",
		"comment_id", comment.ID,
		"post_id", postID)

	s.enqueue(ctx, notify.CommentCreated(comment.ID))
	return comment, nil
}

// ModerateComment публикует или скрывает комментарий (только staff).
// Автору поста пишем только при переходе Draft -> Published.
func (s *Service) ModerateComment(ctx context.Context, commentID uint, publish bool) (*domain.Comment, error) {
	if err := access.AuthorizeModeration(access.ActorFrom(ctx)); err != nil {
		return nil, err
	}

	before, after, err := s.store.UpdateComment(ctx, commentID, func(c *domain.Comment) error {
		c.IsPublished = publish
		c.PubDate = s.clock.Stamp(c.PubDate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	transition := publication.Detect(before.IsPublished, after.IsPublished)
	s.logger.Info("Comment moderated",
		"comment_id", after.ID,
		"post_id", after.PostID,
		"transition", transition)

	if ev, ok := transition.Event(publication.EntityComment, after.ID); ok {
		s.enqueue(ctx, notify.ForEvent(ev, after.PostID))
		s.broadcast(ctx, after)
	}
	return after, nil
}

// broadcast отдает комментарий живой ленте, только если он виден читателям:
// подписчик мог подключиться, пока пост еще был опубликован.
func (s *Service) broadcast(ctx context.Context, c *domain.Comment) {
	if s.feed == nil {
		return
	}
	post, err := s.store.GetPostByID(ctx, c.PostID)
	if err != nil {
		s.logger.Warn("Skipping live broadcast, post not loaded",
			"comment_id", c.ID,
			"post_id", c.PostID,
			"error", err)
		return
	}
	if !access.CommentVisible(c, post) {
		s.logger.Debug("Skipping live broadcast for hidden post", "comment_id", c.ID, "post_id", c.PostID)
		return
	}
	s.feed.Publish(c)
}

// ListPostComments - опубликованные комментарии поста постранично.
// У черновика комментариев не видно никому.
func (s *Service) ListPostComments(ctx context.Context, postID uint, page int) (Page[*domain.Comment], error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return Page[*domain.Comment]{}, err
	}
	if !post.IsPublished {
		return newPage[*domain.Comment](nil, page, CommentsPerPage, 0)
	}

	args, err := pageArgs(page, CommentsPerPage)
	if err != nil {
		return Page[*domain.Comment]{}, err
	}
	comments, total, err := s.store.GetPublishedComments(ctx, postID, args)
	if err != nil {
		return Page[*domain.Comment]{}, err
	}
	return newPage(comments, page, CommentsPerPage, total)
}
