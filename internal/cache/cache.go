// Package cache - кэш готовых страниц с фиксированным временем жизни.
// При записи в хранилище кэш не сбрасывается: в пределах TTL читатели
// могут видеть устаревшие списки.
package cache

import (
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Page - сохраненный ответ.
type Page struct {
	Status int
	Header http.Header
	Body   []byte
}

// PageCache - хранилище страниц.
type PageCache interface {
	Get(key string) (Page, bool)
	Set(key string, page Page)
	Purge()
}

// LRU - PageCache на expirable LRU.
type LRU struct {
	lru *expirable.LRU[string, Page]
}

// NewLRU создает кэш на size записей с временем жизни ttl.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{lru: expirable.NewLRU[string, Page](size, nil, ttl)}
}

func (c *LRU) Get(key string) (Page, bool) { return c.lru.Get(key) }

func (c *LRU) Set(key string, page Page) { c.lru.Add(key, page) }

func (c *LRU) Purge() { c.lru.Purge() }

// Len - число живых записей.
func (c *LRU) Len() int { return c.lru.Len() }
