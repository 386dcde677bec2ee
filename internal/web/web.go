// Package web holds the HTML templates and static assets of the helpdesk.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"

	"github.com/spec-kit/helpdesk/internal/render"
)

// Layout wraps every page.
const Layout = "layouts/base"

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// NewEngine parses the embedded templates. Comment bodies go through md.
func NewEngine(md *render.Markdown) *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(template.FuncMap{
		"markdown": md.Template,
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"label": func(v any) string {
			raw := strings.ReplaceAll(fmt.Sprint(v), "-", " ")
			if raw == "" {
				return raw
			}
			return strings.ToUpper(raw[:1]) + raw[1:]
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	})
	return engine
}

// Static returns the embedded stylesheet and scripts.
func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
