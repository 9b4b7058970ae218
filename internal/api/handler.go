// internal/api/handler.go
//
// JSON API over the design lifecycle.
//
// Context
// -------
// Thin adapters: decode and validate the body, call the coordinator or the
// resolver, and map errors to statuses.  No lifecycle rules live here.
//
//   - POST /api/design/generate   {subdomain, prompt}
//   - POST /api/design/update     {subdomain, feedback}
//   - POST /api/design/deploy     {subdomain, versionId?}
//   - POST /api/design/refresh    {subdomain}
//   - POST /api/design/undeploy   {subdomain}
//   - GET  /api/resolve/{subdomain}
//   - GET  /api/subdomains
//   - POST /api/subdomains        {subdomain, emoji}
//
// Errors are `{"error": "..."}` with 400 for validation, 404 for a missing
// record or design, 409 for an unsupported gateway call, and 500 for
// everything else (upstream message preserved).
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/design"
	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/resolve"
	"github.com/yanizio/pagesmith/internal/store"
)

var validate = validator.New()

// Lifecycle is the subset of *design.Coordinator the API drives.
type Lifecycle interface {
	Generate(ctx context.Context, subdomain, prompt string) (*record.Record, error)
	Update(ctx context.Context, subdomain, feedback string) (*record.Record, error)
	Deploy(ctx context.Context, subdomain, versionID string) (*record.Record, error)
	Refresh(ctx context.Context, subdomain string) (design.RefreshResult, error)
	Undeploy(ctx context.Context, subdomain string) (design.UndeployResult, error)
}

// Resolver is the subset of *resolve.Resolver the API reads through.
type Resolver interface {
	Resolve(ctx context.Context, subdomain string) (resolve.Presentation, error)
	Invalidate(subdomain string)
}

// Handler serves the JSON API.
type Handler struct {
	life     Lifecycle
	resolver Resolver
	store    store.Store
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewHandler wires a Handler.  log may be nil.
func NewHandler(life Lifecycle, resolver Resolver, s store.Store, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.S()
	}
	return &Handler{life: life, resolver: resolver, store: s, log: log, now: time.Now}
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/design", func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Post("/update", h.Update)
			r.Post("/deploy", h.Deploy)
			r.Post("/refresh", h.Refresh)
			r.Post("/undeploy", h.Undeploy)
		})
		r.Get("/resolve/{subdomain}", h.Resolve)
		r.Get("/subdomains", h.ListSubdomains)
		r.Post("/subdomains", h.CreateSubdomain)
	})
}

//
// request bodies
//

type GenerateRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Prompt    string `json:"prompt"    validate:"required"`
}

type UpdateRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Feedback  string `json:"feedback"  validate:"required"`
}

// DeployRequest carries an optional version id.  Gateways running the
// explicit version policy require it.
type DeployRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	VersionID string `json:"versionId"`
}

type SubdomainRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
}

type CreateSubdomainRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Emoji     string `json:"emoji"`
}

//
// responses
//

type DesignResponse struct {
	Success bool           `json:"success"`
	Data    *record.Design `json:"data"`
}

type DeploymentResponse struct {
	Success    bool               `json:"success"`
	Deployment *record.Deployment `json:"deployment"`
}

type RefreshResponse struct {
	Success    bool               `json:"success"`
	Deployment *record.Deployment `json:"deployment"`
	Checked    bool               `json:"checked"`
	Changed    bool               `json:"changed"`
}

type UndeployResponse struct {
	Success bool `json:"success"`
	Deleted bool `json:"deleted"`
}

type SubdomainsResponse struct {
	Subdomains []store.Summary `json:"subdomains"`
}

//
// lifecycle handlers
//

// Generate handles POST /api/design/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if msg, ok := decode(w, r, &req, "Subdomain and prompt are required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	rec, err := h.life.Generate(r.Context(), req.Subdomain, req.Prompt)
	if err != nil {
		h.failOp(w, r, "generate design", err)
		return
	}
	writeJSON(w, http.StatusOK, DesignResponse{Success: true, Data: rec.Design})
}

// Update handles POST /api/design/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if msg, ok := decode(w, r, &req, "Subdomain and feedback are required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	rec, err := h.life.Update(r.Context(), req.Subdomain, req.Feedback)
	if err != nil {
		h.failOp(w, r, "update design", err)
		return
	}
	writeJSON(w, http.StatusOK, DesignResponse{Success: true, Data: rec.Design})
}

// Deploy handles POST /api/design/deploy.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req DeployRequest
	if msg, ok := decode(w, r, &req, "Subdomain is required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	rec, err := h.life.Deploy(r.Context(), req.Subdomain, req.VersionID)
	if err != nil {
		h.failOp(w, r, "create deployment", err)
		return
	}
	writeJSON(w, http.StatusOK, DeploymentResponse{Success: true, Deployment: rec.Deployment()})
}

// Refresh handles POST /api/design/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req SubdomainRequest
	if msg, ok := decode(w, r, &req, "Subdomain is required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	res, err := h.life.Refresh(r.Context(), req.Subdomain)
	if err != nil {
		h.failOp(w, r, "refresh deployment", err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		Success:    true,
		Deployment: res.Record.Deployment(),
		Checked:    res.Checked,
		Changed:    res.Changed,
	})
}

// Undeploy handles POST /api/design/undeploy.
func (h *Handler) Undeploy(w http.ResponseWriter, r *http.Request) {
	var req SubdomainRequest
	if msg, ok := decode(w, r, &req, "Subdomain is required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	res, err := h.life.Undeploy(r.Context(), req.Subdomain)
	if err != nil {
		h.failOp(w, r, "delete deployment", err)
		return
	}
	writeJSON(w, http.StatusOK, UndeployResponse{Success: true, Deleted: res.Deleted})
}

//
// read handlers
//

// Resolve handles GET /api/resolve/{subdomain}.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.Resolve(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		h.failOp(w, r, "resolve subdomain", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListSubdomains handles GET /api/subdomains.
func (h *Handler) ListSubdomains(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.failOp(w, r, "list subdomains", err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, SubdomainsResponse{Subdomains: list})
}

// CreateSubdomain handles POST /api/subdomains.  An existing record is
// returned unchanged with 200; a new one is created with 201.
func (h *Handler) CreateSubdomain(w http.ResponseWriter, r *http.Request) {
	var req CreateSubdomainRequest
	if msg, ok := decode(w, r, &req, "Subdomain is required"); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	sub := record.Normalize(req.Subdomain)
	if sub == "" {
		writeError(w, http.StatusBadRequest, "Subdomain must contain letters, digits, or hyphens")
		return
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		emoji = record.DefaultEmoji
	}
	if !resolve.ValidIcon(emoji) {
		writeError(w, http.StatusBadRequest, "Please enter a valid emoji (maximum 10 characters)")
		return
	}

	existing, err := h.store.Get(r.Context(), sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, store.Summary{
			Subdomain: sub, Emoji: existing.Emoji, CreatedAt: existing.CreatedAt, HasDesign: existing.HasDesign(),
		})
		return
	case !errors.Is(err, store.ErrNotFound):
		h.failOp(w, r, "load subdomain", err)
		return
	}

	rec := record.New(emoji, h.now())
	if err := h.store.Set(r.Context(), sub, rec); err != nil {
		h.failOp(w, r, "create subdomain", err)
		return
	}
	h.resolver.Invalidate(sub)
	h.log.Infow("subdomain created", "subdomain", sub, "emoji", emoji)
	writeJSON(w, http.StatusCreated, store.Summary{Subdomain: sub, Emoji: rec.Emoji, CreatedAt: rec.CreatedAt})
}
