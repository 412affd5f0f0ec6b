package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/UkralStul/blog-publication-service/internal/blog"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":         stats.Users,
		"posts":         stats.Posts,
		"comments":      stats.Comments,
		"mostCommented": stats.MostCommented,
		"messages":      takeFlash(w, r),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	_, err := s.svc.Register(r.Context(), blog.RegisterInput{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Username:  r.PostForm.Get("username"),
		Email:     r.PostForm.Get("email"),
		Password1: r.PostForm.Get("password1"),
		Password2: r.PostForm.Get("password2"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/", &Flash{Level: levelSuccess, Message: "Welcome to our blog!!!"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	user, err := s.svc.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.SetCookie(w, user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	next := r.FormValue("next")
	// только локальные адреса, без open redirect
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleProfileGet - ID в адресе игнорируется, показывается свой профиль.
func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.CurrentUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user,
		"messages": takeFlash(w, r),
	})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	_, err := s.svc.UpdateProfile(r.Context(), blog.ProfileInput{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Username:  r.PostForm.Get("username"),
		Email:     r.PostForm.Get("email"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// возвращаемся на тот же адрес, с тем же {id}
	redirect(w, r, r.URL.Path, &Flash{Level: levelSuccess, Message: "Your profile info has been successfully saved!!!"})
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	err := s.svc.ChangePassword(r.Context(), blog.PasswordInput{
		OldPassword:  r.PostForm.Get("old_password"),
		NewPassword1: r.PostForm.Get("new_password1"),
		NewPassword2: r.PostForm.Get("new_password2"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, _ := pathID(r)
	redirect(w, r, fmt.Sprintf("/profile/%d/update/", id), &Flash{Level: levelSuccess, Message: "Your password has been changed."})
}

func (s *Server) handleAuthorInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.svc.AuthorInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileView{
		ID:        info.User.ID,
		Username:  info.User.Username,
		FirstName: info.User.FirstName,
		LastLogin: info.User.LastLogin,
		NumPosts:  info.PostCount,
	})
}
