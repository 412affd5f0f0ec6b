package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/access"
	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

const msgUsernameTaken = "A user with that username already exists."

// AuthorProfile - публичная страница автора.
type AuthorProfile struct {
	User      *domain.User `json:"user"`
	PostCount int64        `json:"numPosts"`
}

// Register создает пользователя. Новый пользователь никогда не staff.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password1)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	})
	if errors.Is(err, domain.ErrConflict) {
		v := domain.NewValidationError()
		v.Add("username", msgUsernameTaken)
		return nil, v
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate проверяет логин и пароль и запоминает время входа.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	invalid := func() error {
		v := domain.NewValidationError()
		v.Add("__all__", "Please enter a correct username and password.")
		return v
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid()
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, invalid()
	}

	now := s.clock.Stamp(time.Time{})
	user.LastLogin = &now
	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return updated, nil
}

// CurrentUser возвращает пользователя, выполняющего запрос.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	actor := access.ActorFrom(ctx)
	if !actor.Authenticated {
		return nil, domain.ErrAuthRequired
	}
	return s.store.GetUserByID(ctx, actor.UserID)
}

// UpdateProfile меняет профиль текущего пользователя. ID из адреса не
// используется: редактировать можно только себя.
func (s *Service) UpdateProfile(ctx context.Context, in ProfileInput) (*domain.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Username = in.Username
	user.Email = in.Email

	updated, err := s.store.UpdateUser(ctx, user)
	if errors.Is(err, domain.ErrConflict) {
		v := domain.NewValidationError()
		v.Add("username", msgUsernameTaken)
		return nil, v
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// ChangePassword меняет пароль текущего пользователя.
func (s *Service) ChangePassword(ctx context.Context, in PasswordInput) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, in.OldPassword) {
		v := domain.NewValidationError()
		v.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
		return v
	}

	hash, err := auth.HashPassword(in.NewPassword1)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// AuthorInfo - профиль автора и число его постов (включая черновики).
func (s *Service) AuthorInfo(ctx context.Context, userID uint) (*AuthorProfile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AuthorProfile{User: user, PostCount: count}, nil
}
