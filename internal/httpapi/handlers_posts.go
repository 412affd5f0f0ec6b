package httpapi

import (
	"fmt"
	"net/http"

	"github.com/UkralStul/blog-publication-service/internal/access"
	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

func postInputFrom(r *http.Request) blog.PostInput {
	return blog.PostInput{
		Heading:         r.PostForm.Get("heading"),
		ShortDefinition: r.PostForm.Get("short_definition"),
		Text:            r.PostForm.Get("text"),
		Image:           r.PostForm.Get("image"),
		IsPublished:     formBool(r.PostForm.Get("is_published")),
	}
}

func fullPost(p *domain.Post) postView    { return newPostView(p, true) }
func summaryPost(p *domain.Post) postView { return newPostView(p, false) }

func (s *Server) handlePostList(w http.ResponseWriter, r *http.Request) {
	page, err := blog.ParsePage(r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.svc.ListPublishedPosts(r.Context(), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":    newPageView(posts, summaryPost),
		"messages": takeFlash(w, r),
	})
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	page, err := blog.ParsePage(r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.svc.ListMyPosts(r.Context(), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": newPageView(posts, summaryPost)})
}

// handlePostDetails: неопубликованный или несуществующий пост - редирект
// на главную с предупреждением.
func (s *Server) handlePostDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	details, err := s.svc.PostDetails(r.Context(), id)
	if err != nil {
		if errorsIsNotFound(err) {
			redirect(w, r, "/", &Flash{Level: levelWarning, Message: "This post isn't published, or doesn't exist!!!"})
			return
		}
		s.writeError(w, r, err)
		return
	}

	comments := make([]commentView, len(details.Comments))
	for i, c := range details.Comments {
		comments[i] = newCommentView(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post":     fullPost(details.Post),
		"comments": comments,
		"form":     map[string]string{"author": "", "text": ""},
		"messages": takeFlash(w, r),
	})
}

// handlePostCreateForm - пустая форма нового поста.
func (s *Server) handlePostCreateForm(w http.ResponseWriter, r *http.Request) {
	if err := access.AuthorizePostCreate(access.ActorFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"form": map[string]any{
			"heading":          domain.DefaultHeading,
			"short_definition": "",
			"text":             "",
			"image":            domain.DefaultImage,
			"is_published":     false,
		},
	})
}

// handlePostCreate: {id} в адресе не используется, автор - текущий пользователь.
func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	if _, err := s.svc.CreatePost(r.Context(), postInputFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/posts/", &Flash{Level: levelSuccess, Message: "Your post has been successfully created!!!"})
}

// handlePostEditGet: {id} - это ID поста.
func (s *Server) handlePostEditGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.svc.EditablePost(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": fullPost(post)})
}

func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	if _, err := s.svc.UpdatePost(r.Context(), id, postInputFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/", &Flash{Level: levelSuccess, Message: "Your post has been successfully updated!!!"})
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeletePost(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := access.ActorFrom(r.Context())
	redirect(w, r, fmt.Sprintf("/profile/%d/my_posts/", actor.UserID),
		&Flash{Level: levelSuccess, Message: "Your post has been deleted."})
}
