package httpapi

import (
	"time"

	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

type authorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type postView struct {
	ID              uint        `json:"id"`
	Author          *authorView `json:"author,omitempty"`
	Heading         string      `json:"heading"`
	ShortDefinition string      `json:"shortDefinition"`
	Text            string      `json:"text,omitempty"`
	Image           string      `json:"image"`
	IsPublished     bool        `json:"isPublished"`
	PubDate         time.Time   `json:"pubDate"`
}

func newPostView(p *domain.Post, full bool) postView {
	v := postView{
		ID:              p.ID,
		Heading:         p.Heading,
		ShortDefinition: p.ShortDefinition,
		Image:           p.Image,
		IsPublished:     p.IsPublished,
		PubDate:         p.PubDate,
	}
	if full {
		v.Text = p.Text
	}
	if p.Author != nil {
		v.Author = &authorView{ID: p.Author.ID, Username: p.Author.Username}
	}
	return v
}

type commentView struct {
	ID      uint      `json:"id"`
	PostID  uint      `json:"postId"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pubDate"`
}

func newCommentView(c *domain.Comment) commentView {
	return commentView{ID: c.ID, PostID: c.PostID, Author: c.Author, Text: c.Text, PubDate: c.PubDate}
}

type pageView[T any] struct {
	Items       []T   `json:"items"`
	Page        int   `json:"page"`
	NumPages    int   `json:"numPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

func newPageView[S, T any](p blog.Page[S], conv func(S) T) pageView[T] {
	items := make([]T, len(p.Items))
	for i, it := range p.Items {
		items[i] = conv(it)
	}
	return pageView[T]{
		Items:       items,
		Page:        p.Number,
		NumPages:    p.NumPages,
		Total:       p.Total,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
}

// profileView - публичные поля автора.
type profileView struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	NumPosts  int64      `json:"numPosts"`
}
