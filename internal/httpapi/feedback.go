package httpapi

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// feedbackFormHTML - фрагмент модального окна, который подставляет
// feedback.js на клиенте.
var feedbackFormHTML = template.Must(template.New("feedback").Parse(`<form method="post" action="/feedback/" class="js-feedback-form">
  <div class="modal-header"><h4 class="modal-title">Send feedback</h4></div>
  <div class="modal-body">
{{- range .Fields}}
    <div class="form-group{{if .Error}} has-error{{end}}">
      <label for="id_{{.Name}}">{{.Label}}</label>
{{- if eq .Kind "textarea"}}
      <textarea name="{{.Name}}" id="id_{{.Name}}" required>{{.Value}}</textarea>
{{- else if eq .Kind "select"}}
      <select name="{{.Name}}" id="id_{{.Name}}">
{{- $v := .Value}}{{range $.Grades}}
        <option value="{{.}}"{{if eq . $v}} selected{{end}}>{{.}}</option>
{{- end}}
      </select>
      <small class="help-block">1 is the lowest score, 5 is the top score</small>
{{- else if eq .Kind "checkbox"}}
      <input type="checkbox" name="{{.Name}}" id="id_{{.Name}}"{{if .Value}} checked{{end}}>
{{- else}}
      <input type="text" name="{{.Name}}" id="id_{{.Name}}" maxlength="100" value="{{.Value}}" required>
{{- end}}
{{- if .Error}}
      <span class="error">{{.Error}}</span>
{{- end}}
    </div>
{{- end}}
  </div>
  <div class="modal-footer"><button type="submit" class="btn btn-primary">Send</button></div>
</form>`))

type feedbackField struct {
	Name  string
	Label string
	Kind  string
	Value string
	Error string
}

func renderFeedbackForm(in blog.FeedbackInput, errs map[string]string) (string, error) {
	reply := ""
	if in.Reply {
		reply = "on"
	}
	fields := []feedbackField{
		{Name: "author", Label: "Author", Kind: "text", Value: in.Author},
		{Name: "title", Label: "Title", Kind: "text", Value: in.Title},
		{Name: "text", Label: "Text", Kind: "textarea", Value: in.Text},
		{Name: "evaluate_the_blog", Label: "Evaluate the blog", Kind: "select", Value: in.Score},
		{Name: "reply_me", Label: "Reply me", Kind: "checkbox", Value: reply},
	}
	for i := range fields {
		fields[i].Error = errs[fields[i].Name]
	}

	var buf bytes.Buffer
	err := feedbackFormHTML.Execute(&buf, struct {
		Fields []feedbackField
		Grades []string
	}{fields, blog.Grades})
	return buf.String(), err
}

type feedbackResponse struct {
	FormIsValid bool   `json:"form_is_valid"`
	HTMLForm    string `json:"html_form"`
}

func (s *Server) handleFeedbackForm(w http.ResponseWriter, r *http.Request) {
	html, err := renderFeedbackForm(blog.FeedbackInput{}, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{FormIsValid: false, HTMLForm: html})
}

// handleFeedbackSubmit всегда отвечает JSON: ошибки формы возвращаются
// внутри html_form.
func (s *Server) handleFeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed form"})
		return
	}
	in := blog.FeedbackInput{
		Author: r.PostForm.Get("author"),
		Title:  r.PostForm.Get("title"),
		Text:   r.PostForm.Get("text"),
		Score:  r.PostForm.Get("evaluate_the_blog"),
		Reply:  formBool(r.PostForm.Get("reply_me")),
	}

	_, err := s.svc.SubmitFeedback(r.Context(), in)
	var ve *domain.ValidationError
	switch {
	case err == nil:
		// успешная отправка возвращает чистую форму
		in = blog.FeedbackInput{}
	case errors.As(err, &ve):
	default:
		s.writeError(w, r, err)
		return
	}

	var fieldErrs map[string]string
	if ve != nil {
		fieldErrs = ve.Fields
	}
	html, rerr := renderFeedbackForm(in, fieldErrs)
	if rerr != nil {
		s.writeError(w, r, rerr)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{FormIsValid: err == nil, HTMLForm: html})
}
