package blog

import (
	"fmt"
	"strconv"

	"github.com/UkralStul/blog-publication-service/internal/domain"
	"github.com/UkralStul/blog-publication-service/internal/storage"
)

// Page - одна страница списка.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"page"`
	Size     int   `json:"pageSize"`
	NumPages int   `json:"numPages"`
	Total    int64 `json:"total"`
}

func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

// ParsePage разбирает ?page=. Пустое значение - первая страница.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page %q: %w", raw, domain.ErrNotFound)
	}
	return n, nil
}

func pageArgs(number, size int) (storage.PaginationArgs, error) {
	if number < 1 {
		return storage.PaginationArgs{}, fmt.Errorf("page %d: %w", number, domain.ErrNotFound)
	}
	return storage.PaginationArgs{Limit: size, Offset: (number - 1) * size}, nil
}

// newPage собирает страницу. Номер за пределами списка - ErrNotFound,
// кроме первой страницы пустого списка.
func newPage[T any](items []T, number, size int, total int64) (Page[T], error) {
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages == 0 {
		numPages = 1
	}
	if number > numPages {
		return Page[T]{}, fmt.Errorf("page %d of %d: %w", number, numPages, domain.ErrNotFound)
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Number: number, Size: size, NumPages: numPages, Total: total}, nil
}
