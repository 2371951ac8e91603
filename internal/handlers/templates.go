// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"certstudio/internal/engine"
	"certstudio/internal/markdown"
	"certstudio/internal/models"
)

// templateRequest is the writable part of a template.
type templateRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Page        *models.Page     `json:"page"`
	Theme       *models.Theme    `json:"theme"`
	Elements    []models.Element `json:"elements"`
	CustomHTML  string           `json:"customHtml"`
}

func (req templateRequest) template() models.Template {
	elements := req.Elements
	if elements == nil {
		elements = []models.Element{}
	}
	return models.Template{
		Name:        req.Name,
		Description: req.Description,
		Page:        req.Page,
		Theme:       req.Theme,
		Elements:    elements,
		CustomHTML:  req.CustomHTML,
	}
}

// templateView adds the rendered description and the data keys the
// template substitutes.
type templateView struct {
	models.Template
	DescriptionHTML string   `json:"description_html,omitempty"`
	Placeholders    []string `json:"placeholders,omitempty"`
}

func newTemplateView(t models.Template) templateView {
	v := templateView{Template: t, Placeholders: placeholders(&t)}
	if t.Description != "" {
		html, err := markdown.ToHTML(t.Description)
		if err != nil {
			slog.Warn("render template description failed", "id", t.ID, "error", err)
		}
		v.DescriptionHTML = html
	}
	return v
}

// ListTemplates returns every template with its rendered description.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.List(r.Context())
	if err != nil {
		serverError(w, "list templates failed", err)
		return
	}
	views := make([]templateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, newTemplateView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetTemplate returns a single template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTemplate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newTemplateView(*t))
}

// CreateTemplate stores a new template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := req.template()
	if msg := validateTemplate(&t); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	created, err := h.Templates.Create(r.Context(), &t)
	if err != nil {
		serverError(w, "create template failed", err)
		return
	}
	slog.Info("template created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, newTemplateView(*created))
}

// UpdateTemplate replaces a template's content and bumps its version.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := req.template()
	t.ID = id
	if msg := validateTemplate(&t); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	updated, err := h.Templates.Update(r.Context(), &t)
	if err != nil {
		serverError(w, "update template failed", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	h.invalidateTemplate(r.Context(), id)
	slog.Info("template updated", "id", id, "version", updated.Version)
	writeJSON(w, http.StatusOK, newTemplateView(*updated))
}

// DeleteTemplate removes a template. Issued certificates keep their snapshot.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTemplate(w, r)
	if !ok {
		return
	}
	if err := h.Templates.Delete(r.Context(), t.ID); err != nil {
		serverError(w, "delete template failed", err)
		return
	}
	h.invalidateTemplate(r.Context(), t.ID)
	slog.Info("template deleted", "id", t.ID)
	w.WriteHeader(http.StatusNoContent)
}

// RenderTemplate renders a template with sample data and returns the HTML
// fragment with its geometry. Query parameters other than scale and width
// are used as data values.
func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTemplate(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := engine.Options{
		FixedScale:     clampScale(queryFloat(q, "scale")),
		ContainerWidth: queryFloat(q, "width"),
	}
	data := h.sampleData(r.Context(), q)
	size := t.Page.Size()
	scale := opts.ScaleFor(size.Width)

	writeJSON(w, http.StatusOK, map[string]any{
		"html":   h.Engine.RenderHTML(t, data, opts),
		"scale":  scale,
		"width":  size.Width * scale,
		"height": size.Height * scale,
		"mode":   renderMode(t),
	})
}

// loadTemplate resolves the {id} parameter, writing 400/404/500 itself.
func (h *Handler) loadTemplate(w http.ResponseWriter, r *http.Request) (*models.Template, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	t, err := h.Templates.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find template failed", err)
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return nil, false
	}
	return t, true
}

func (h *Handler) invalidateTemplate(ctx context.Context, id uuid.UUID) {
	h.Engine.InvalidateTemplate(id.String())
	if h.Cache != nil {
		h.Cache.InvalidateTemplate(ctx, id)
	}
}

// reservedParams are query parameters that never become data values.
var reservedParams = map[string]bool{"scale": true, "width": true, "design": true}

// sampleData builds the data context for previews: placeholder recipient
// values, then site settings, then query parameters.
func (h *Handler) sampleData(ctx context.Context, q url.Values) map[string]string {
	data := map[string]string{
		engine.TokenRecipientName:  "Alex Morgan",
		engine.TokenCourseName:     "Introduction to Design",
		engine.TokenInstructorName: "Dr. Sam Lee",
		engine.TokenCertificateID:  "CERT-000123",
		engine.TokenDate:           h.Now().Format(engine.DateLayout),
	}
	for k, v := range h.settings(ctx) {
		data[k] = v
	}
	for k, vs := range q {
		if reservedParams[k] || len(vs) == 0 {
			continue
		}
		data[k] = vs[0]
	}
	return data
}

// queryFloat parses a positive float query parameter, or returns 0.
func queryFloat(q url.Values, key string) float64 {
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// placeholders lists the distinct data keys referenced by the template.
func placeholders(t *models.Template) []string {
	if renderMode(t) == "raw" {
		return engine.Placeholders(t.CustomHTML)
	}
	var keys []string
	seen := make(map[string]bool)
	for _, e := range t.Elements {
		if e.Type != models.ElementTypeText {
			continue
		}
		for _, k := range engine.Placeholders(e.Content) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func renderMode(t *models.Template) string {
	if strings.TrimSpace(t.CustomHTML) != "" {
		return "raw"
	}
	return "structured"
}
