package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются только копии, чтобы вызывающий код не менял данные мимо хранилища.
type Store struct {
	mu             sync.RWMutex
	users          map[uint]*domain.User
	posts          map[uint]*domain.Post
	comments       map[uint]*domain.Comment
	commentsByPost map[uint][]uint // map[postID][]commentID

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:          make(map[uint]*domain.User),
		posts:          make(map[uint]*domain.Post),
		comments:       make(map[uint]*domain.Comment),
		commentsByPost: make(map[uint][]uint),
	}
}

var _ storage.Storage = (*Store)(nil)

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
		}
	}

	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.users[stored.ID] = &stored
	return copyUser(&stored), nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %d: %w", id, domain.ErrNotFound)
	}
	return copyUser(user), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return nil, fmt.Errorf("user with id %d: %w", user.ID, domain.ErrNotFound)
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return nil, fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
		}
	}
	stored := *user
	s.users[user.ID] = &stored
	return copyUser(&stored), nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = copyUser(u)
		}
	}
	return result, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return nil, fmt.Errorf("author with id %d: %w", post.AuthorID, domain.ErrNotFound)
	}

	s.nextPostID++
	stored := *post
	stored.ID = s.nextPostID
	stored.Author = nil
	stored.Comments = nil
	s.posts[stored.ID] = &stored
	return copyPost(&stored), nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %d: %w", id, domain.ErrNotFound)
	}
	return copyPost(post), nil
}

func (s *Store) UpdatePost(ctx context.Context, id uint, mutate storage.PostMutation) (*domain.Post, *domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.posts[id]
	if !ok {
		return nil, nil, fmt.Errorf("post with id %d: %w", id, domain.ErrNotFound)
	}

	before := copyPost(current)
	working := copyPost(current)
	if err := mutate(working); err != nil {
		return nil, nil, err
	}
	// Автор и ID не меняются после создания
	working.ID = current.ID
	working.AuthorID = current.AuthorID

	s.posts[id] = copyPost(working)
	return before, working, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post with id %d: %w", id, domain.ErrNotFound)
	}
	// Каскадное удаление комментариев
	for _, cID := range s.commentsByPost[id] {
		delete(s.comments, cID)
	}
	delete(s.commentsByPost, id)
	delete(s.posts, id)
	return nil
}

func (s *Store) GetPublishedPosts(ctx context.Context, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginatePosts(s.filterPosts(func(p *domain.Post) bool { return p.IsPublished }), args)
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID uint, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginatePosts(s.filterPosts(func(p *domain.Post) bool { return p.AuthorID == authorID }), args)
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filterPosts(func(p *domain.Post) bool { return p.AuthorID == authorID }))), nil
}

func (s *Store) filterPosts(keep func(*domain.Post) bool) []*domain.Post {
	out := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, copyPost(p))
		}
	}
	// Новые сверху, при равной дате - по убыванию ID
	sort.Slice(out, func(i, j int) bool {
		if out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].PubDate.After(out[j].PubDate)
	})
	return out
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post with id %d: %w", comment.PostID, domain.ErrNotFound)
	}

	s.nextCommentID++
	stored := *comment
	stored.ID = s.nextCommentID
	s.comments[stored.ID] = &stored
	s.commentsByPost[stored.PostID] = append(s.commentsByPost[stored.PostID], stored.ID)

	out := stored
	return &out, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id uint) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment with id %d: %w", id, domain.ErrNotFound)
	}
	out := *comment
	return &out, nil
}

func (s *Store) UpdateComment(ctx context.Context, id uint, mutate storage.CommentMutation) (*domain.Comment, *domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.comments[id]
	if !ok {
		return nil, nil, fmt.Errorf("comment with id %d: %w", id, domain.ErrNotFound)
	}

	before := *current
	working := *current
	if err := mutate(&working); err != nil {
		return nil, nil, err
	}
	working.ID = current.ID
	working.PostID = current.PostID

	stored := working
	s.comments[id] = &stored
	return &before, &working, nil
}

func (s *Store) GetPublishedComments(ctx context.Context, postID uint, args storage.PaginationArgs) ([]*domain.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Comment, 0, len(s.commentsByPost[postID]))
	for _, id := range s.commentsByPost[postID] {
		if c, ok := s.comments[id]; ok && c.IsPublished {
			out := *c
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].PubDate.Equal(all[j].PubDate) {
			return all[i].ID > all[j].ID
		}
		return all[i].PubDate.After(all[j].PubDate)
	})

	total := int64(len(all))
	start, end := bounds(len(all), args)
	return all[start:end], total, nil
}

// === Stats ===

func (s *Store) Stats(ctx context.Context, top int) (*domain.SiteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.SiteStats{
		Posts:         int64(len(s.posts)),
		Comments:      int64(len(s.comments)),
		MostCommented: []domain.PostCommentCount{},
	}
	for _, u := range s.users {
		if !u.IsStaff && !u.IsSuperuser {
			stats.Users++
		}
	}

	for postID, ids := range s.commentsByPost {
		if len(ids) == 0 {
			continue
		}
		// в рейтинг на публичной главной попадают только опубликованные посты
		p, ok := s.posts[postID]
		if !ok || !p.IsPublished {
			continue
		}
		stats.MostCommented = append(stats.MostCommented, domain.PostCommentCount{
			PostID:   postID,
			Heading:  p.Heading,
			Comments: int64(len(ids)),
		})
	}
	sort.Slice(stats.MostCommented, func(i, j int) bool {
		a, b := stats.MostCommented[i], stats.MostCommented[j]
		if a.Comments == b.Comments {
			return a.PostID < b.PostID
		}
		return a.Comments > b.Comments
	})
	if top > 0 && len(stats.MostCommented) > top {
		stats.MostCommented = stats.MostCommented[:top]
	}
	return stats, nil
}

// paginatePosts - вспомогательная функция для пагинации
func paginatePosts(all []*domain.Post, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	start, end := bounds(len(all), args)
	return all[start:end], int64(len(all)), nil
}

func bounds(n int, args storage.PaginationArgs) (int, int) {
	start := args.Offset
	if start < 0 {
		start = 0
	}
	if start >= n {
		return n, n
	}
	end := n
	if args.Limit > 0 && start+args.Limit < n {
		end = start + args.Limit
	}
	return start, end
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	out.Posts = nil
	return &out
}

func copyPost(p *domain.Post) *domain.Post {
	out := *p
	out.Author = nil
	out.Comments = nil
	return &out
}
