package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
)

// TemplateRenderer renders a named page to an HTTP response.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data any)
}

// Renderer manages template parsing and rendering with isolated template sets.
//
// Templates are organized as:
//   - layouts/base.html - the page shell, which defines "base"
//   - pages/*.html - one page each, defining "title" and "content"
//
// Every page is parsed into its own clone of the layout so that page
// blocks never collide.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	isDev     bool
	fsys      fs.FS
	mu        sync.RWMutex
}

// NewRendererFromFS creates a renderer from a filesystem rooted at the
// templates directory. With isDev set, templates are re-parsed on every
// render so edits show up without a restart.
func NewRendererFromFS(fsys fs.FS, logger *slog.Logger, isDev bool) (*Renderer, error) {
	r := &Renderer{
		logger: logger,
		isDev:  isDev,
		fsys:   fsys,
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every template from the filesystem.
func (r *Renderer) Reload() error {
	templates, err := parseTemplates(r.fsys)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "count", len(templates))
	return nil
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages found")
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		pageTmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		// Store as "home", "dashboard", etc.
		name := strings.TrimSuffix(path.Base(page), path.Ext(page))
		templates[name] = pageTmpl
	}

	return templates, nil
}

// RenderHTTP renders a template directly to an http.ResponseWriter.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus is RenderHTTP with an explicit status code.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any) {
	if r.isDev {
		if err := r.Reload(); err != nil {
			r.logger.Error("template reload failed", "error", err)
			http.Error(w, "Template reload failed", http.StatusInternalServerError)
			return
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("template not found", "name", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var _ TemplateRenderer = (*Renderer)(nil)
