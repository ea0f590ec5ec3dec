// Package document renders warehouse documents to HTML with html/template.
package document

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appdoc "github.com/pharmawms/backend/internal/application/document"
)

//go:embed templates/*.html
var templateFS embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

var templateFiles = map[appdoc.Kind]string{
	appdoc.KindPickRoute:       "templates/pick_route.html",
	appdoc.KindConferenceSheet: "templates/conference_sheet.html",
}

// RenderError wraps a template failure with the document kind.
type RenderError struct {
	Kind  appdoc.Kind
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Kind, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// HTMLRenderer renders the embedded templates. Templates are parsed once.
type HTMLRenderer struct {
	templates map[appdoc.Kind]*template.Template
}

var _ appdoc.Renderer = (*HTMLRenderer)(nil)

func NewHTMLRenderer() (*HTMLRenderer, error) {
	funcs := FuncMap()
	r := &HTMLRenderer{templates: make(map[appdoc.Kind]*template.Template, len(templateFiles))}
	for kind, path := range templateFiles {
		content, err := templateFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		tmpl, err := template.New(string(kind)).Funcs(funcs).Parse(string(content))
		if err != nil {
			return nil, &RenderError{Kind: kind, Cause: err}
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

func (r *HTMLRenderer) Render(_ context.Context, kind appdoc.Kind, data any) ([]byte, string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return nil, "", &RenderError{Kind: kind, Cause: fmt.Errorf("no template")}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, "", &RenderError{Kind: kind, Cause: err}
	}
	return buf.Bytes(), contentTypeHTML, nil
}

// FuncMap returns the helpers available to document templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"title":          titleCase,
		"label":          labelText,
		"upper":          strings.ToUpper,
		"percent":        percent,
		"deref":          deref,
		"verdict":        verdict,
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(v any) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x != nil {
			t = *x
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// labelText turns a snake_case status into words: short_picked → Short Picked.
func labelText(s string) string {
	return titleCase(strings.ReplaceAll(s, "_", " "))
}

func percent(part, total int64) string {
	if total <= 0 {
		return "0%"
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(1).String() + "%"
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// verdict is blank while a conference is still blind.
func verdict(matches *bool) string {
	switch {
	case matches == nil:
		return ""
	case *matches:
		return "OK"
	default:
		return "Divergent"
	}
}
