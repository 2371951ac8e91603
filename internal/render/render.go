// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render wraps rendered certificate canvases in HTML pages: the
// template gallery, the design preview, the printable certificate and the
// verification page. It supports full-page and HTMX partial rendering,
// detecting the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var pagesFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title       string         // Page title for <title> tag
	Section     string         // Active navigation section (e.g., "gallery")
	Institution string         // Issuing institution shown in the header
	RequestID   string         // Set from the request context
	Data        map[string]any // Page-specific data
}

// Renderer handles template parsing and execution for pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates render as full HTML documents without the base layout.
// The printable certificate must not carry navigation chrome.
var standaloneTemplates = map[string]bool{
	"certificate": true,
}

// New creates a Renderer by parsing every page template from the embedded
// filesystem. Each page is paired with the base layout. When devMode is
// true, pages load HTMX unminified.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "nav-link active"
				}
				return "nav-link"
			},
			"isDev": func() bool {
				return devMode
			},
			// trusted marks engine output, which is escaped at construction.
			"trusted": func(s string) template.HTML {
				return template.HTML(s)
			},
			// dataURL admits data: URIs produced by the server (QR codes).
			"dataURL": func(s string) template.URL {
				if !strings.HasPrefix(s, "data:image/") {
					return ""
				}
				return template.URL(s)
			},
			"formatDate": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("January 2, 2006")
			},
			"shortID": func(s string) string {
				if len(s) > 8 {
					return strings.ToUpper(s[:8])
				}
				return strings.ToUpper(s)
			},
		},
	}

	entries, err := fs.ReadDir(pagesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(pagesFS, "templates/"+name)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(
				pagesFS, "templates/base.html", "templates/"+name,
			)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Has reports whether a page template is registered.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	if !rn.Has(name) {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Render into a buffer first so a template error can still produce a
	// clean 500 instead of a half-written page.
	out, err := rn.Render(r, name, data)
	if err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(out)
}

// Render executes a page template and returns the output. HTMX requests
// get the "content" block only, except for standalone pages.
func (rn *Renderer) Render(r *http.Request, name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	if data == nil {
		data = &PageData{}
	}
	if data.RequestID == "" {
		data.RequestID = middleware.GetReqID(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}
	if isHTMX(r) && !standaloneTemplates[name] {
		execName = "content"
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
