package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsFile = "templates/partials.html"
)

var funcMap = template.FuncMap{
	"capitalize": capitalize,
	"width":      barWidth,
	"dict":       dict,
}

// Templates holds one parsed template set per page, each a clone of the layout.
type Templates struct {
	pages map[string]*template.Template
}

func LoadTemplates() (*Templates, error) {
	base, err := template.New("base").Funcs(funcMap).ParseFS(templatesFS, layoutFile, partialsFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, file := range files {
		if file == layoutFile || file == partialsFile {
			continue
		}

		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := page.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}

	return &Templates{pages: pages}, nil
}

// Render executes the named page into w. Output is buffered so a failing
// template never leaves a half written page behind.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute %s: %w", page, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}

func barWidth(percent float64) template.CSS {
	return template.CSS(fmt.Sprintf("%.1f%%", percent))
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}

	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
