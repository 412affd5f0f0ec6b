package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound - сущности нет, либо она скрыта от текущего пользователя.
	ErrNotFound = errors.New("not found")
	// ErrAuthRequired - операция требует входа.
	ErrAuthRequired = errors.New("authentication required")
	// ErrForbidden используется только для модерации. Чужой пост - это ErrNotFound.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict - нарушение уникальности (например, занятый username).
	ErrConflict = errors.New("conflict")
)

// ValidationError содержит ошибки формы по полям.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создает пустую ошибку валидации.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add запоминает первую ошибку для поля.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil возвращает nil, если ошибок нет.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
