package blog

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

const (
	msgRequired = "This field is required."
	msgChoice   = "Select a valid choice. %s is not one of the available choices."
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

func required(v *domain.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, msgRequired)
	}
}

func maxLen(v *domain.ValidationError, field, value string, n int) {
	if l := utf8.RuneCountInString(value); l > n {
		v.Add(field, "Ensure this value has at most "+strconv.Itoa(n)+
			" characters (it has "+strconv.Itoa(l)+").")
	}
}

func validUsername(v *domain.ValidationError, username string) {
	required(v, "username", username)
	maxLen(v, "username", username, 150)
	if username != "" && !usernameRe.MatchString(username) {
		v.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func validEmail(v *domain.ValidationError, email string) {
	if email == "" {
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		v.Add("email", "Enter a valid email address.")
	}
}

func validPassword(v *domain.ValidationError, field, password string) {
	if password == "" {
		v.Add(field, msgRequired)
		return
	}
	if utf8.RuneCountInString(password) < 8 {
		v.Add(field, "This password is too short. It must contain at least 8 characters.")
		return
	}
	if _, err := strconv.Atoi(password); err == nil {
		v.Add(field, "This password is entirely numeric.")
	}
}

// RegisterInput - форма регистрации.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

func (in RegisterInput) validate() error {
	v := domain.NewValidationError()
	validUsername(v, in.Username)
	validEmail(v, in.Email)
	maxLen(v, "first_name", in.FirstName, 150)
	maxLen(v, "last_name", in.LastName, 150)
	validPassword(v, "password1", in.Password1)
	required(v, "password2", in.Password2)
	if in.Password1 != "" && in.Password2 != "" && in.Password1 != in.Password2 {
		v.Add("password2", "The two password fields didn't match.")
	}
	return v.OrNil()
}

// ProfileInput - форма профиля.
type ProfileInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
}

func (in ProfileInput) validate() error {
	v := domain.NewValidationError()
	validUsername(v, in.Username)
	validEmail(v, in.Email)
	maxLen(v, "first_name", in.FirstName, 150)
	maxLen(v, "last_name", in.LastName, 150)
	return v.OrNil()
}

// PasswordInput - смена пароля.
type PasswordInput struct {
	OldPassword  string
	NewPassword1 string
	NewPassword2 string
}

func (in PasswordInput) validate() error {
	v := domain.NewValidationError()
	required(v, "old_password", in.OldPassword)
	validPassword(v, "new_password1", in.NewPassword1)
	required(v, "new_password2", in.NewPassword2)
	if in.NewPassword1 != "" && in.NewPassword2 != "" && in.NewPassword1 != in.NewPassword2 {
		v.Add("new_password2", "The two password fields didn't match.")
	}
	return v.OrNil()
}

// PostInput - форма создания и редактирования поста.
type PostInput struct {
	Heading         string
	ShortDefinition string
	Text            string
	Image           string
	IsPublished     bool
}

func (in PostInput) validate() error {
	v := domain.NewValidationError()
	maxLen(v, "heading", in.Heading, 50)
	required(v, "short_definition", in.ShortDefinition)
	maxLen(v, "short_definition", in.ShortDefinition, 200)
	required(v, "text", in.Text)
	maxLen(v, "image", in.Image, 100)
	return v.OrNil()
}

// apply переносит поля формы в пост.
func (in PostInput) apply(p *domain.Post) {
	p.Heading = in.Heading
	if strings.TrimSpace(p.Heading) == "" {
		p.Heading = domain.DefaultHeading
	}
	p.ShortDefinition = in.ShortDefinition
	p.Text = in.Text
	p.Image = in.Image
	if p.Image == "" {
		p.Image = domain.DefaultImage
	}
	p.IsPublished = in.IsPublished
}

// CommentInput - форма комментария. Автор - произвольная строка.
type CommentInput struct {
	Author string
	Text   string
}

func (in CommentInput) validate() error {
	v := domain.NewValidationError()
	required(v, "author", in.Author)
	maxLen(v, "author", in.Author, 100)
	required(v, "text", in.Text)
	maxLen(v, "text", in.Text, 400)
	return v.OrNil()
}

// Grades - допустимые оценки блога.
var Grades = []string{"5", "4", "3", "2", "1"}

// FeedbackInput - форма отзыва. Score приходит строкой, как из формы.
type FeedbackInput struct {
	Author string
	Title  string
	Text   string
	Score  string
	Reply  bool
}

func (in FeedbackInput) validate() (domain.Feedback, error) {
	v := domain.NewValidationError()
	required(v, "author", in.Author)
	maxLen(v, "author", in.Author, 100)
	required(v, "title", in.Title)
	maxLen(v, "title", in.Title, 100)
	required(v, "text", in.Text)

	score := 0
	switch {
	case in.Score == "":
		v.Add("evaluate_the_blog", msgRequired)
	default:
		for _, g := range Grades {
			if in.Score == g {
				score, _ = strconv.Atoi(g)
			}
		}
		if score == 0 {
			v.Add("evaluate_the_blog", fmt.Sprintf(msgChoice, in.Score))
		}
	}

	if err := v.OrNil(); err != nil {
		return domain.Feedback{}, err
	}
	return domain.Feedback{
		Author: in.Author,
		Title:  in.Title,
		Text:   in.Text,
		Score:  score,
		Reply:  in.Reply,
	}, nil
}
