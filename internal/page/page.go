// internal/page/page.go
//
// HTML rendering for tenant pages.
//
// Context
// -------
// Two read-only surfaces consume the resolution facade:
//
//   - GET /s/{subdomain}          – the tenant page.  With a design it frames
//     the selected presentation (src for URLs, srcdoc for inline markup)
//     and shows a "Live Site" chip for completed deployments; without one
//     it shows the welcome page with the record's icon.
//   - GET /s/{subdomain}/design   – the management page.  It shows the
//     lifecycle state, the deployment status and links, and forms that post
//     to the /api/design/* endpoints through the embedded static/design.js.
//   - GET /api/proxy/{subdomain}  – a standalone document that runs the
//     design's main component file in the browser, for previews.
//
// Page templates are embedded and parsed once at start-up, one set per page
// (layout + content), so each page owns its own "content" block.
//
// Notes
// -----
//   - Pages are rendered into a buffer first; a template error never sends
//     a half-written 200.
//   - Oxford commas, two spaces after periods.
package page

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	texttemplate "text/template"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/middleware"
	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/resolve"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	pages = map[string]*template.Template{
		"design":   parsePage("design"),
		"manage":   parsePage("manage"),
		"welcome":  parsePage("welcome"),
		"notfound": parsePage("notfound"),
	}
	proxyTmpl = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/proxy.tmpl"))
)

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

// proxyCSP lets the preview document pull React, Babel, and Tailwind from
// their CDNs and evaluate the transpiled component.
const proxyCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval' " +
	"https://unpkg.com https://cdn.tailwindcss.com; style-src 'self' 'unsafe-inline'; " +
	"img-src * data:; connect-src *; frame-ancestors 'self'"

// Reader loads records for rendering.  *resolve.Resolver satisfies it.
type Reader interface {
	Record(ctx context.Context, subdomain string) (*record.Record, error)
}

// Handler renders tenant pages.
type Handler struct {
	reader     Reader
	rootDomain string
	scheme     string
	log        *zap.SugaredLogger
}

// NewHandler wires a Handler.  secure selects https links to the apex.
func NewHandler(reader Reader, rootDomain string, secure bool, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.S()
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &Handler{reader: reader, rootDomain: rootDomain, scheme: scheme, log: log}
}

// Routes mounts the page and proxy routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/s/{subdomain}", h.Subdomain)
	r.Get("/s/{subdomain}/design", h.Design)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles()))))
	r.Get("/api/proxy/{subdomain}", h.Proxy)
}

type pageData struct {
	Title        string
	Subdomain    string
	Emoji        string
	RootDomain   string
	RootURL      string
	Presentation resolve.Presentation

	// management page only
	Record     *record.Record
	State      string
	HasDesign  bool
	PreviewURL string
}

// Subdomain handles GET /s/{subdomain}.
func (h *Handler) Subdomain(w http.ResponseWriter, r *http.Request) {
	sub := record.Normalize(chi.URLParam(r, "subdomain"))
	data := pageData{
		Title:      h.rootDomain,
		Subdomain:  sub,
		RootDomain: h.rootDomain,
		RootURL:    h.scheme + "://" + h.rootDomain,
	}

	rec, err := h.reader.Record(r.Context(), sub)
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		h.render(w, http.StatusNotFound, "notfound", data)
		return
	case err != nil:
		h.log.Errorw("page load failed", "subdomain", sub, "err", err)
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	data.Title = sub + "." + h.rootDomain
	data.Emoji = rec.Emoji
	if !rec.HasDesign() {
		h.render(w, http.StatusOK, "welcome", data)
		return
	}
	data.Presentation = resolve.Select(sub, rec)
	h.render(w, http.StatusOK, "design", data)
}

// Design handles GET /s/{subdomain}/design.
func (h *Handler) Design(w http.ResponseWriter, r *http.Request) {
	sub := record.Normalize(chi.URLParam(r, "subdomain"))
	data := pageData{
		Title:      h.rootDomain,
		Subdomain:  sub,
		RootDomain: h.rootDomain,
		RootURL:    h.scheme + "://" + h.rootDomain,
	}

	rec, err := h.reader.Record(r.Context(), sub)
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		h.render(w, http.StatusNotFound, "notfound", data)
		return
	case err != nil:
		h.log.Errorw("design page load failed", "subdomain", sub, "err", err)
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	data.Title = "Design " + sub + "." + h.rootDomain
	data.Emoji = rec.Emoji
	data.Record = rec
	data.State = rec.State().String()
	data.HasDesign = rec.HasDesign()
	if data.HasDesign {
		data.PreviewURL = previewURL(rec.Design)
	}
	h.render(w, http.StatusOK, "manage", data)
}

// previewURL picks the upstream preview link, falling back to content that
// is itself a URL.
func previewURL(d *record.Design) string {
	if strings.HasPrefix(d.PreviewURL, "https://") {
		return d.PreviewURL
	}
	if strings.HasPrefix(d.Content, "https://") || strings.HasPrefix(d.Content, "http://") {
		return d.Content
	}
	return ""
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Proxy handles GET /api/proxy/{subdomain}.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	sub := record.Normalize(chi.URLParam(r, "subdomain"))
	if sub == "" {
		writeJSONError(w, http.StatusBadRequest, "Subdomain required")
		return
	}

	rec, err := h.reader.Record(r.Context(), sub)
	if err != nil && !errors.Is(err, resolve.ErrNotFound) {
		h.log.Errorw("proxy load failed", "subdomain", sub, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to serve content")
		return
	}
	if rec == nil || rec.Design == nil || len(rec.Design.Files) == 0 {
		writeJSONError(w, http.StatusNotFound, "No design files found")
		return
	}
	file, ok := resolve.MainFile(rec.Design.Files)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "No main component file found")
		return
	}

	var buf bytes.Buffer
	err = proxyTmpl.Execute(&buf, struct{ Title, Source string }{
		Title:  html.EscapeString(sub),
		Source: scriptSafe(file.Content),
	})
	if err != nil {
		h.log.Errorw("proxy render failed", "subdomain", sub, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to serve content")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", proxyCSP)
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Errorw("page render failed", "page", name, "err", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", middleware.CSP)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// scriptSafe stops generated source from closing the surrounding script
// element early.
func scriptSafe(src string) string {
	return strings.ReplaceAll(src, "</script", `<\/script`)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
