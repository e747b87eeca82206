package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// SharePageData is the template data for the public release page.
type SharePageData struct {
	PageData
	Release   model.Release
	Summary   string
	Changelog template.HTML
	Commits   []ShareCommit
	Period    string
}

// ShareCommit is one commit as shown on the share page.
type ShareCommit struct {
	Title       string
	Body        template.HTML
	Tags        []string
	Date        string
	Highlighted bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	markdown  goldmark.Markdown
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatDate": formatDate,
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"share": "share.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		// Raw HTML in user markdown is escaped (goldmark's default)
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		version:  version,
	}, nil
}

// renderPage renders a named page template with the given HTTP status.
func (r *Renderer) renderPage(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// renderMarkdown converts markdown text to HTML using goldmark.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// renderError writes err as JSON for API routes and as an HTML page elsewhere.
// Internal error messages are replaced with a generic one.
func (h *Handlers) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var be *errors.BuriosaError
	if !stderrors.As(err, &be) {
		be = errors.NewInternal(err)
	}

	message := be.Message
	if be.Code == errors.ErrInternal {
		h.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		message = "an internal error occurred"
	}

	if !strings.HasPrefix(req.URL.Path, "/api/") && !strings.Contains(req.Header.Get("Accept"), "application/json") {
		perr := h.renderer.renderPage(w, be.Status, "error", ErrorPageData{
			PageData:   PageData{Title: fmt.Sprintf("Error %d", be.Status), Version: h.renderer.version},
			StatusCode: be.Status,
			Message:    message,
		})
		if perr == nil {
			return
		}
		h.logger.Error("failed to render error page", "error", perr)
	}

	errorObj := map[string]any{
		"code":    be.Code,
		"message": message,
		"status":  be.Status,
	}
	if be.Code != errors.ErrInternal && be.Details != nil {
		errorObj["details"] = be.Details
	}
	renderJSON(w, be.Status, map[string]any{"error": errorObj})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}
