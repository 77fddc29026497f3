// Package render turns connect views into HTML pages.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"sso-connect/internal/connect"
	"sso-connect/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageLinkUser = "connect_link_user.html"
	pageFail     = "connect_fail.html"
)

// Page is the data every connect template receives.
type Page struct {
	Lang      string
	Title     string
	StepClass string
	Tr        connect.Translator

	LinkUser *connect.LinkUserView
	Fail     *connect.FailView
}

// Renderer holds the parsed page templates.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Templates exposes the template set, e.g. for gin's SetHTMLTemplate.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

// Page maps a view to its template name and data. A nil tr renders
// the fallback locale.
func (r *Renderer) Page(v connect.View, tr connect.Translator, lang string) (string, Page, error) {
	if tr == nil {
		fallback := i18n.Parse("")
		tr, lang = fallback, fallback.Lang()
	}
	p := Page{
		Lang:      lang,
		Title:     v.Title(),
		StepClass: "authenticateConnect-" + string(v.Step()),
		Tr:        tr,
	}

	switch view := v.(type) {
	case *connect.LinkUserView:
		p.LinkUser = view
		return pageLinkUser, p, nil
	case *connect.FailView:
		p.Fail = view
		return pageFail, p, nil
	default:
		return "", Page{}, fmt.Errorf("render: unsupported view %T", v)
	}
}

// Render writes the page for v to w.
func (r *Renderer) Render(w io.Writer, v connect.View, tr connect.Translator, lang string) error {
	name, data, err := r.Page(v, tr, lang)
	if err != nil {
		return err
	}
	return r.tmpl.ExecuteTemplate(w, name, data)
}
