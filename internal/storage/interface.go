package storage

import (
	"context"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// PaginationArgs - аргументы для постраничной выборки.
type PaginationArgs struct {
	Limit  int
	Offset int
}

// PostMutation изменяет пост внутри транзакции обновления.
// Ошибка из функции откатывает запись.
type PostMutation func(post *domain.Post) error

// CommentMutation - то же самое для комментария.
type CommentMutation func(comment *domain.Comment) error

// Storage определяет контракт для хранилищ.
//
// Методы Update* выполняют чтение-изменение-запись атомарно и возвращают
// состояние до и после изменения: по этой паре определяется переход публикации.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id uint) (*domain.Post, error)
	UpdatePost(ctx context.Context, id uint, mutate PostMutation) (before, after *domain.Post, err error)
	DeletePost(ctx context.Context, id uint) error
	GetPublishedPosts(ctx context.Context, args PaginationArgs) ([]*domain.Post, int64, error)
	GetPostsByAuthor(ctx context.Context, authorID uint, args PaginationArgs) ([]*domain.Post, int64, error)
	CountPostsByAuthor(ctx context.Context, authorID uint) (int64, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id uint) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id uint, mutate CommentMutation) (before, after *domain.Comment, err error)
	GetPublishedComments(ctx context.Context, postID uint, args PaginationArgs) ([]*domain.Comment, int64, error)

	Stats(ctx context.Context, top int) (*domain.SiteStats, error)

	// Метод для Dataloader'а
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error)
}
