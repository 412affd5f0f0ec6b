package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/access"
	"github.com/UkralStul/blog-publication-service/internal/dataloader"
	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/notify"
	"github.com/UkralStul/blog-publication-service/internal/publication"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// PostDetails - пост с опубликованными комментариями.
type PostDetails struct {
	Post     *domain.Post      `json:"post"`
	Comments []*domain.Comment `json:"comments"`
}

// CreatePost создает пост от имени текущего пользователя. Пост, созданный
// сразу опубликованным, считается переходом Draft -> Published.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*domain.Post, error) {
	actor := access.ActorFrom(ctx)
	if err := access.AuthorizePostCreate(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post := &domain.Post{AuthorID: actor.UserID}
	in.apply(post)
	post.PubDate = s.clock.Stamp(time.Time{})

	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("Post created",
		"post_id", created.ID,
		"author_id", created.AuthorID,
		"state", publication.StateOf(created.IsPublished))

	if ev, ok := publication.DetectCreate(created.IsPublished).Event(publication.EntityPost, created.ID); ok {
		s.enqueue(ctx, notify.ForEvent(ev, created.ID))
	}
	return created, nil
}

// EditablePost возвращает пост для формы редактирования. Чужой пост -
// ErrNotFound.
func (s *Service) EditablePost(ctx context.Context, postID uint) (*domain.Post, error) {
	actor := access.ActorFrom(ctx)
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		if !actor.Authenticated {
			return nil, domain.ErrAuthRequired
		}
		return nil, err
	}
	if err := access.AuthorizePostWrite(actor, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost сохраняет пост автора. pub_date обновляется при каждом
// сохранении; уведомление ставится только при переходе в Published.
func (s *Service) UpdatePost(ctx context.Context, postID uint, in PostInput) (*domain.Post, error) {
	actor := access.ActorFrom(ctx)
	if _, err := s.EditablePost(ctx, postID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	before, after, err := s.store.UpdatePost(ctx, postID, func(p *domain.Post) error {
		// владельца проверяем еще раз внутри транзакции
		if err := access.AuthorizePostWrite(actor, p); err != nil {
			return err
		}
		in.apply(p)
		p.PubDate = s.clock.Stamp(p.PubDate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	transition := publication.Detect(before.IsPublished, after.IsPublished)
	s.logger.Info("Post updated",
		"post_id", after.ID,
		"transition", transition)

	if ev, ok := transition.Event(publication.EntityPost, after.ID); ok {
		s.enqueue(ctx, notify.ForEvent(ev, after.ID))
	}
	return after, nil
}

// DeletePost удаляет пост автора вместе с комментариями.
func (s *Service) DeletePost(ctx context.Context, postID uint) error {
	if _, err := s.EditablePost(ctx, postID); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.logger.Info("Post deleted", "post_id", postID)
	return nil
}

// GetPost возвращает пост, если текущий пользователь может его читать.
// Невидимый пост неотличим от несуществующего.
func (s *Service) GetPost(ctx context.Context, postID uint) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !access.CanReadPost(access.ActorFrom(ctx), post) {
		return nil, fmt.Errorf("post %d: %w", postID, domain.ErrNotFound)
	}
	if err := s.attachAuthors(ctx, []*domain.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// PostDetails - страница поста. Открывается только для опубликованных
// постов; комментарии - только опубликованные, новые сверху.
func (s *Service) PostDetails(ctx context.Context, postID uint) (*PostDetails, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished {
		return nil, fmt.Errorf("post %d is a draft: %w", postID, domain.ErrNotFound)
	}

	comments, _, err := s.store.GetPublishedComments(ctx, postID, storage.PaginationArgs{})
	if err != nil {
		return nil, err
	}
	visible := comments[:0]
	for _, c := range comments {
		if access.CommentVisible(c, post) {
			visible = append(visible, c)
		}
	}
	if visible == nil {
		visible = []*domain.Comment{}
	}
	return &PostDetails{Post: post, Comments: visible}, nil
}

// ListPublishedPosts - лента опубликованных постов.
func (s *Service) ListPublishedPosts(ctx context.Context, page int) (Page[*domain.Post], error) {
	args, err := pageArgs(page, PostsPerPage)
	if err != nil {
		return Page[*domain.Post]{}, err
	}
	posts, total, err := s.store.GetPublishedPosts(ctx, args)
	if err != nil {
		return Page[*domain.Post]{}, err
	}
	if err := s.attachAuthors(ctx, posts); err != nil {
		return Page[*domain.Post]{}, err
	}
	return newPage(posts, page, PostsPerPage, total)
}

// ListMyPosts - все посты текущего пользователя, включая черновики.
func (s *Service) ListMyPosts(ctx context.Context, page int) (Page[*domain.Post], error) {
	actor := access.ActorFrom(ctx)
	if !actor.Authenticated {
		return Page[*domain.Post]{}, domain.ErrAuthRequired
	}
	args, err := pageArgs(page, MyPostsPerPage)
	if err != nil {
		return Page[*domain.Post]{}, err
	}
	posts, total, err := s.store.GetPostsByAuthor(ctx, actor.UserID, args)
	if err != nil {
		return Page[*domain.Post]{}, err
	}
	return newPage(posts, page, MyPostsPerPage, total)
}

// attachAuthors подгружает авторов пачкой: через лоадер запроса, если он
// есть, иначе одним запросом к хранилищу.
func (s *Service) attachAuthors(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}

	var (
		users map[uint]*domain.User
		err   error
	)
	if l := dataloader.For(ctx); l != nil {
		users, err = l.LoadUsers(ctx, ids)
	} else {
		users, err = s.store.GetUsersByIDs(ctx, ids)
	}
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}

	for _, p := range posts {
		p.Author = users[p.AuthorID]
	}
	return nil
}
