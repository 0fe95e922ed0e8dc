// Package render turns projected variables into the LaTeX report.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"credit_appraisal/pkg/core/latex"
)

//go:embed templates/credit_report.tex.tmpl
var defaultTemplate string

// DefaultTemplateName names the embedded template in error messages.
const DefaultTemplateName = "credit_report.tex.tmpl"

// Renderer executes one parsed report template.
type Renderer struct {
	name         string
	notAvailable string
	tmpl         *template.Template
}

// New parses the template at path, or the embedded default when path is
// empty. notAvailable is what the at helper prints for a missing index.
func New(path, notAvailable string) (*Renderer, error) {
	name, src := DefaultTemplateName, defaultTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		name, src = filepath.Base(path), string(data)
		fmt.Printf("[render.New] Loaded template from %s\n", path)
	}
	return Parse(name, src, notAvailable)
}

// Parse builds a renderer from template source.
func Parse(name, src, notAvailable string) (*Renderer, error) {
	r := &Renderer{name: name, notAvailable: notAvailable}
	tmpl, err := template.New(name).
		Delims("<<", ">>").
		Option("missingkey=error").
		Funcs(r.funcs()).
		Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Name returns the template name.
func (r *Renderer) Name() string { return r.name }

// Render executes the template. Nothing is returned on failure, so callers
// never see half a document.
func (r *Renderer) Render(vars map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", r.name, err)
	}
	return buf.String(), nil
}

// Entry is one key/value pair of a free-form section, for templates.
type Entry struct {
	Key   string
	Value any
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"escape":  escape,
		"at":      r.at,
		"join":    strings.Join,
		"add":     func(a, b int) int { return a + b },
		"row":     row,
		"colspec": colspec,
		"items":   items,
		"entries": entries,
		"flat":    r.flat,
	}
}

func escape(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return latex.EscapeString(t)
	default:
		return latex.EscapeString(fmt.Sprint(t))
	}
}

func (r *Renderer) at(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return r.notAvailable
	}
	return values[i]
}

// row formats one table line: label & v1 & v2 \\
func row(label string, values []string) string {
	var b strings.Builder
	b.WriteString(label)
	for _, v := range values {
		b.WriteString(" & ")
		b.WriteString(v)
	}
	b.WriteString(` \\`)
	return b.String()
}

// colspec is a tabular column spec: one label column plus n numeric columns.
func colspec(n int) string {
	return "l" + strings.Repeat("r", n)
}

func items(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{v}
	}
}

func entries(v any) []Entry {
	m, ok := v.(map[string]any)
	if !ok {
		return []Entry{{Value: v}}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: m[k]})
	}
	return out
}

// flat renders an already escaped pass-through value as one line of text.
// Object keys come from the source document and are escaped here.
func (r *Renderer) flat(v any) string {
	switch t := v.(type) {
	case nil:
		return r.notAvailable
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, child := range t {
			parts = append(parts, r.flat(child))
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, e := range entries(t) {
			parts = append(parts, latex.EscapeString(e.Key)+": "+r.flat(e.Value))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(t)
	}
}
