// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for certstudio: the JSON API
// used by the template editor and the issuing backend, and the public HTML
// pages (gallery, preview, issued certificates, verification). Handlers
// receive their dependencies through small interfaces so they can run
// against in-memory fakes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certstudio/internal/engine"
	"certstudio/internal/models"
	"certstudio/internal/render"
)

// TemplateRepository persists templates. Implemented by store.TemplateStore.
type TemplateRepository interface {
	List(ctx context.Context) ([]models.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Create(ctx context.Context, t *models.Template) (*models.Template, error)
	Update(ctx context.Context, t *models.Template) (*models.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CertificateRepository persists issued certificates. Implemented by
// store.CertificateStore.
type CertificateRepository interface {
	Create(ctx context.Context, c *models.IssuedCertificate) (*models.IssuedCertificate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.IssuedCertificate, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.IssuedCertificate, error)
	ListByTemplate(ctx context.Context, templateID uuid.UUID, limit int) ([]models.IssuedCertificate, error)
}

// SettingsRepository stores institutional branding. Implemented by
// store.SiteSettingStore.
type SettingsRepository interface {
	All(ctx context.Context) (models.SiteSettings, error)
	SetMany(ctx context.Context, settings map[string]string) error
}

// DraftRepository keeps editor drafts. Implemented by cache.DraftStore.
type DraftRepository interface {
	Create(ctx context.Context, d *models.Draft) error
	Get(ctx context.Context, id string) (*models.Draft, error)
	Save(ctx context.Context, d *models.Draft) error
	Delete(ctx context.Context, id string) error
}

// PageCache is the L2 cache of rendered pages. Implemented by
// cache.RenderCache.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, html []byte)
	InvalidateCertificate(ctx context.Context, id uuid.UUID)
	InvalidateTemplate(ctx context.Context, id uuid.UUID)
	InvalidateAll(ctx context.Context)
}

// AssetStorage uploads template assets. Implemented by storage.Client.
type AssetStorage interface {
	UploadPublic(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	UploadOriginal(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	DeleteURL(ctx context.Context, rawURL string) error
}

// Deps carries everything the handlers need. Cache and Storage may be nil:
// pages are then rendered on every request and uploads are disabled.
type Deps struct {
	Templates    TemplateRepository
	Certificates CertificateRepository
	Settings     SettingsRepository
	Drafts       DraftRepository
	Cache        PageCache
	Storage      AssetStorage
	Engine       *engine.Engine
	Renderer     *render.Renderer

	BaseURL        string  // public origin for verification links
	GridSize       float64 // drag snapping for design surfaces
	MaxUploadBytes int64
	Now            func() time.Time
}

// Handler groups every HTTP handler and their dependencies.
type Handler struct {
	Deps
}

// New creates a Handler. Now defaults to time.Now.
func New(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 10 << 20
	}
	return &Handler{Deps: deps}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and writes a generic 500.
func serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// maxJSONBody bounds request bodies of the JSON API.
const maxJSONBody = 2 << 20

// decodeJSON reads a JSON request body into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// uuidParam parses a UUID URL parameter, writing a 400 on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// settings loads the branding settings. Failures degrade to no settings.
func (h *Handler) settings(ctx context.Context) models.SiteSettings {
	s, err := h.Settings.All(ctx)
	if err != nil {
		slog.Warn("load site settings failed", "error", err)
		return models.SiteSettings{}
	}
	return s
}
