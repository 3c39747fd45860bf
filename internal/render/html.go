package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"zweigbib/internal/router"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"plural":       plural,
	"categoryHref": func(v string) string { return href(router.CategoryRoute(v)) },
	"languageHref": func(v string) string { return href(router.LanguageRoute(v)) },
	"periodHref":   func(v string) string { return href(router.TimePeriodRoute(v)) },
	"detailHref":   func(id string) string { return href(router.DetailRoute(id)) },
	"legacyHref":   func(id string) string { return href(router.LegacyRoute(id)) },
}).ParseFS(templateFS, "templates/*.html"))

// HTML renders directives as HTML fragments.
type HTML struct {
	w io.Writer
}

func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Render writes the fragment for d. KindNone writes nothing.
func (h *HTML) Render(d router.Directive) error {
	name, data, ok := templateFor(d)
	if !ok {
		return nil
	}
	// Execute into a buffer first so a failing template writes nothing.
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", d.Kind, err)
	}
	_, err := h.w.Write(buf.Bytes())
	return err
}

// Fragment renders d to a string.
func Fragment(d router.Directive) (string, error) {
	var buf bytes.Buffer
	if err := NewHTML(&buf).Render(d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteIndex writes the single page shell that drives the browser client.
func WriteIndex(w io.Writer, title string) error {
	return templates.ExecuteTemplate(w, "index", struct{ Title string }{title})
}

func templateFor(d router.Directive) (string, any, bool) {
	switch d.Kind {
	case router.KindDashboard:
		if d.Summary == nil {
			return "", nil, false
		}
		return "dashboard", d.Summary, true
	case router.KindList:
		return "list", d.Entries, true
	case router.KindDetail:
		if d.Entry == nil {
			return "", nil, false
		}
		return "detail", d.Entry, true
	case router.KindError:
		return "error", d.Message, true
	case router.KindLoading:
		return "loading", d.Loading, true
	}
	return "", nil, false
}

// href is the in-page link for r. The whole href comes from one action so
// the template escapes it as a URL rather than as a fragment component.
func href(r router.Route) string {
	return "#" + r.Token()
}

func plural(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}
