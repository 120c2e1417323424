package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sneaker_shop/internal/middleware/csrf"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Page is what every template receives.
type Page struct {
	User      *models.User
	Flashes   []session.Flash
	CSRFToken string
	Data      any
}

type Renderer struct {
	pages map[string]*template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
}

// NewRenderer parses each page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		name := path.Base(f)
		if name == layoutFile {
			continue
		}
		t, err := template.New(name).Funcs(funcs()).ParseFS(templateFS, "templates/"+layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// render pops the pending flashes so each one is shown exactly once.
func render(c echo.Context, code int, name string, data any) error {
	return c.Render(code, name, Page{
		User:      auth.CurrentUser(c),
		Flashes:   session.Get(c).PopFlashes(),
		CSRFToken: csrf.Token(c),
		Data:      data,
	})
}
