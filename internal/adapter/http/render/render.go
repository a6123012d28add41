// Package render holds the HTML templates and the data they are executed
// with.
package render

import (
	"embed"
	"html/template"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	"todoweb/internal/core/security"
)

//go:embed templates/*.tmpl
var files embed.FS

const (
	IndexPage    = "index.tmpl"
	LoginPage    = "login.tmpl"
	RegisterPage = "register.tmpl"
	ErrorPage    = "error.tmpl"
)

type Page struct {
	Title     string
	User      *domain.User
	CSRFToken string
	Flashes   []port.Flash

	Todos []domain.Todo

	// Username refills the auth forms after a failed submission.
	Username string
	Next     string

	Status  int
	Message string
}

// HasForm reports whether page name always posts a CSRF-protected form.
// The error page only does so for a signed-in user.
func HasForm(name string) bool {
	return name != ErrorPage
}

func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.tmpl")
}

var funcs = template.FuncMap{
	"alertClass": alertClass,
	"completedCount": func(todos []domain.Todo) int {
		n := 0
		for _, t := range todos {
			if t.Completed {
				n++
			}
		}
		return n
	},
	"pendingCount": func(todos []domain.Todo) int {
		n := 0
		for _, t := range todos {
			if !t.Completed {
				n++
			}
		}
		return n
	},

	// Descriptions are stored escaped; decode them so the template escapes
	// exactly once.
	"plain": security.PlainText,
}

func alertClass(category string) string {
	switch category {
	case "error":
		return "danger"
	case "success", "info", "warning":
		return category
	default:
		return "secondary"
	}
}
