package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

func errorsIsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func (s *Server) handleCommentSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	_, err = s.svc.SubmitComment(r.Context(), id, blog.CommentInput{
		Author: r.PostForm.Get("author"),
		Text:   r.PostForm.Get("text"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/post/%d/details", id),
		&Flash{Level: levelSuccess, Message: "Your comment will be added soon!"})
}

func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := blog.ParsePage(r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	comments, err := s.svc.ListPostComments(r.Context(), id, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": newPageView(comments, newCommentView)})
}

// handleModerateComment - ручка модератора: is_published=true|false.
func (s *Server) handleModerateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	c, err := s.svc.ModerateComment(r.Context(), id, formBool(r.PostForm.Get("is_published")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comment":     newCommentView(c),
		"isPublished": c.IsPublished,
	})
}
