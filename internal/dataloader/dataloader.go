package dataloader

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/blog-publication-service/internal/domain"
)

type contextKey string

const key = contextKey("dataloaders")

// UserSource - пакетная выборка пользователей (storage.Storage подходит).
type UserSource interface {
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error)
}

// Loaders содержит все дата-лоадеры запроса.
type Loaders struct {
	UserByID *dataloader.Loader
}

// NewLoaders создает лоадеры. Живут они один запрос: кэш не сбрасывается.
func NewLoaders(users UserSource) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uint, 0, len(keys))
		for _, k := range keys {
			id, err := strconv.ParseUint(k.String(), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}

		// Один запрос к хранилищу на всю пачку
		found, err := users.GetUsersByIDs(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, k := range keys {
			id, _ := strconv.ParseUint(k.String(), 10, 64)
			if u, ok := found[uint(id)]; ok {
				results[i] = &dataloader.Result{Data: u}
			} else {
				results[i] = &dataloader.Result{Error: domain.ErrNotFound}
			}
		}
		return results
	}

	return &Loaders{
		UserByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(users))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLoaders кладет лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Вне запроса возвращает nil.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// LoadUser возвращает пользователя через пакетный лоадер.
func (l *Loaders) LoadUser(ctx context.Context, id uint) (*domain.User, error) {
	v, err := l.UserByID.Load(ctx, dataloader.StringKey(strconv.FormatUint(uint64(id), 10)))()
	if err != nil {
		return nil, err
	}
	return v.(*domain.User), nil
}

// LoadUsers грузит несколько пользователей одной пачкой. Ненайденные пропускаются.
func (l *Loaders) LoadUsers(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = dataloader.StringKey(strconv.FormatUint(uint64(id), 10))
	}
	values, errs := l.UserByID.LoadMany(ctx, keys)()

	out := make(map[uint]*domain.User, len(ids))
	for i, v := range values {
		if i < len(errs) && errs[i] != nil {
			if errors.Is(errs[i], domain.ErrNotFound) {
				continue
			}
			return nil, errs[i]
		}
		if u, ok := v.(*domain.User); ok {
			out[ids[i]] = u
		}
	}
	return out, nil
}
