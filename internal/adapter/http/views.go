package adapthttp

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"portal/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index", "login", "signup", "future", "assessment", "courses",
	"admin_home", "admin_users", "admin_user_edit", "admin_reports",
}

type views struct {
	pages map[string]*template.Template
}

var viewFuncs = template.FuncMap{
	"day": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}

func mustParseViews() *views {
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t := template.Must(template.New("layout.html").Funcs(viewFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
		v.pages[name] = t
	}
	return v
}

// pageData is the model handed to every template.
type pageData struct {
	Title string
	User  *domain.UserSnapshot
	SSO   bool
	Data  any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := s.views.pages[name]
	if !ok {
		s.logger.Error("unknown view", "view", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout", pageData{
		Title: title,
		User:  userFromContext(r),
		SSO:   s.oidc != nil,
		Data:  data,
	})
	if err != nil {
		s.logger.Error("render view", "view", name, "request_id", requestID(r.Context()), "error", err)
		http.Error(w, fmt.Sprintf("error rendering %s", name), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
