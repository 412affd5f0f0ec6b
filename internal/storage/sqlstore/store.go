package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Options - настройки подключения к базе.
type Options struct {
	Logger        *slog.Logger
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
	// ForceIPv4 заставляет pgx ходить только по tcp4.
	ForceIPv4    bool
	MaxOpenConns int
}

// Store реализует интерфейс Storage через GORM (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// NewPostgres создает хранилище PostgreSQL поверх pgx.
func NewPostgres(dsn string, opts Options) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opts.ForceIPv4 {
		cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
			return d.DialContext(ctx, "tcp4", addr)
		}
	}

	sqlDB := stdlib.OpenDB(*cfg)
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return Open(postgres.New(postgres.Config{Conn: sqlDB}), opts)
}

// NewSQLite создает хранилище в файле SQLite (":memory:" для тестов).
func NewSQLite(path string, opts Options) (*Store, error) {
	return Open(sqlite.Open(path), opts)
}

// Open подключается через произвольный диалект и выполняет миграцию схемы.
func Open(dialector gorm.Dialector, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	slow := opts.SlowThreshold
	if slow == 0 {
		slow = 1500 * time.Millisecond
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(log.Handler(), slog.LevelInfo), logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping проверяет доступность базы.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	res := s.db.WithContext(ctx).Model(&domain.User{ID: user.ID}).
		Select("username", "email", "first_name", "last_name", "password_hash", "last_login").
		Updates(user)
	if res.Error != nil {
		return nil, translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user with id %d: %w", user.ID, domain.ErrNotFound)
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	var users []*domain.User
	// Загружаем всех авторов одним запросом
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make(map[uint]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", post.AuthorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("author with id %d: %w", post.AuthorID, domain.ErrNotFound)
		}
		return tx.Omit(clause.Associations).Create(post).Error
	})
	if err != nil {
		return nil, translate(err, "post")
	}
	// GORM автоматически заполнит ID после создания
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		// GORM возвращает gorm.ErrRecordNotFound, если запись не найдена
		return nil, translate(err, "post")
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id uint, mutate storage.PostMutation) (*domain.Post, *domain.Post, error) {
	var before, after domain.Post
	// Используем транзакцию для атомарности операции чтения-записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockForUpdate(tx).First(&before, "id = ?", id).Error; err != nil {
			return err
		}
		after = before
		if err := mutate(&after); err != nil {
			return err
		}
		after.ID, after.AuthorID = before.ID, before.AuthorID

		return tx.Model(&domain.Post{ID: id}).
			Select("heading", "short_definition", "text", "image", "is_published", "pub_date").
			Updates(&after).Error
	})
	if err != nil {
		return nil, nil, translate(err, "post")
	}
	return &before, &after, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SQLite по умолчанию не проверяет внешние ключи, поэтому удаляем явно
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post with id %d: %w", id, domain.ErrNotFound)
		}
		return nil
	}), "post")
}

func (s *Store) GetPublishedPosts(ctx context.Context, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	return s.pagePosts(s.db.WithContext(ctx).Where("is_published = ?", true), args)
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID uint, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	return s.pagePosts(s.db.WithContext(ctx).Where("author_id = ?", authorID), args)
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *Store) pagePosts(query *gorm.DB, args storage.PaginationArgs) ([]*domain.Post, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&domain.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []*domain.Post
	err := paginate(query.Order("pub_date DESC, id DESC"), args).Find(&posts).Error
	return posts, total, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Проверяем существование поста и создаем комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("post with id %d: %w", comment.PostID, domain.ErrNotFound)
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, translate(err, "comment")
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id uint) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err, "comment")
	}
	return &comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, id uint, mutate storage.CommentMutation) (*domain.Comment, *domain.Comment, error) {
	var before, after domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockForUpdate(tx).First(&before, "id = ?", id).Error; err != nil {
			return err
		}
		after = before
		if err := mutate(&after); err != nil {
			return err
		}
		after.ID, after.PostID = before.ID, before.PostID

		return tx.Model(&domain.Comment{ID: id}).
			Select("author", "text", "is_published", "pub_date").
			Updates(&after).Error
	})
	if err != nil {
		return nil, nil, translate(err, "comment")
	}
	return &before, &after, nil
}

func (s *Store) GetPublishedComments(ctx context.Context, postID uint, args storage.PaginationArgs) ([]*domain.Comment, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("post_id = ? AND is_published = ?", postID, true)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var comments []*domain.Comment
	err := paginate(query.Order("pub_date DESC, id DESC"), args).Find(&comments).Error
	return comments, total, err
}

// === Stats ===

func (s *Store) Stats(ctx context.Context, top int) (*domain.SiteStats, error) {
	db := s.db.WithContext(ctx)
	stats := &domain.SiteStats{MostCommented: []domain.PostCommentCount{}}

	if err := db.Model(&domain.User{}).
		Where("is_staff = ? AND is_superuser = ?", false, false).
		Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Post{}).Count(&stats.Posts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Comment{}).Count(&stats.Comments).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		PostID  uint
		Heading string
		Total   int64
	}
	err := db.Model(&domain.Comment{}).
		Select("comments.post_id AS post_id, posts.heading AS heading, COUNT(comments.id) AS total").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.is_published = ?", true).
		Group("comments.post_id, posts.heading").
		Order("total DESC, comments.post_id ASC").
		Limit(top).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.MostCommented = append(stats.MostCommented, domain.PostCommentCount{
			PostID:   r.PostID,
			Heading:  r.Heading,
			Comments: r.Total,
		})
	}
	return stats, nil
}

// lockForUpdate добавляет SELECT ... FOR UPDATE там, где диалект это поддерживает.
func (s *Store) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if s.db.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func paginate(query *gorm.DB, args storage.PaginationArgs) *gorm.DB {
	if args.Limit > 0 {
		query = query.Limit(args.Limit)
	}
	if args.Offset > 0 {
		query = query.Offset(args.Offset)
	}
	return query
}

// translate приводит ошибки GORM к доменным.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", entity, domain.ErrConflict)
	default:
		return err
	}
}
