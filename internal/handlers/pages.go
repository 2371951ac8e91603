// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certstudio/internal/cache"
	"certstudio/internal/engine"
	"certstudio/internal/markdown"
	"certstudio/internal/models"
	"certstudio/internal/render"
)

// Gallery card rendering.
const (
	galleryCardWidth = 320
	gallerySummary   = 140
)

// galleryItem is one card on the gallery page.
type galleryItem struct {
	ID      string
	Name    string
	Summary string
	Canvas  string
	Page    string
}

// Gallery lists every template as a scaled-down preview card.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	templates, err := h.Templates.List(ctx)
	if err != nil {
		slog.Error("list templates for gallery failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	settings := h.settings(ctx)
	data := h.sampleData(ctx, nil)

	items := make([]galleryItem, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		items = append(items, galleryItem{
			ID:      t.ID.String(),
			Name:    t.Name,
			Summary: markdown.Summary(t.Description, gallerySummary),
			Canvas:  h.Engine.RenderHTML(t, data, engine.Options{ContainerWidth: galleryCardWidth}),
			Page:    pageLabel(t),
		})
	}

	h.Renderer.Page(w, r, "gallery", &render.PageData{
		Title:       "Templates",
		Section:     "gallery",
		Institution: settings.Get(models.SettingInstitutionName, ""),
		Data:        map[string]any{"Templates": items},
	})
}

func pageLabel(t *models.Template) string {
	if t.Page == nil {
		return "Custom HTML"
	}
	return fmt.Sprintf("%s %s", t.Page.Type, t.Page.Orientation)
}

// PreviewPage renders one template with sample data. "scale" pins the
// display scale and "design" shows the design overlays. Other query
// parameters are used as data values. Non-design previews are cached.
func (h *Handler) PreviewPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundPage(w, r, "This template does not exist.")
		return
	}
	ctx := r.Context()
	t, err := h.Templates.FindByID(ctx, id)
	if err != nil {
		slog.Error("find template for preview failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		h.notFoundPage(w, r, "This template does not exist.")
		return
	}

	q := r.URL.Query()
	scale := clampScale(queryFloat(q, "scale"))
	if scale == 0 {
		scale = 1
	}
	design := q.Get("design") != ""
	data := h.sampleData(ctx, q)

	var key string
	if h.Cache != nil && !design {
		mode := "page"
		if r.Header.Get("HX-Request") == "true" {
			mode = "partial"
		}
		digest := engine.Digest(data, scale, h.Now().Format("2006-01-02"))
		key = cache.PreviewKey(t.ID, t.Version, digest+":"+mode)
		if page, ok := h.Cache.Get(ctx, key); ok {
			writeHTML(w, page)
			return
		}
	}

	opts := engine.Options{FixedScale: scale, DesignMode: design}
	var canvas string
	if design {
		canvas = engine.Render(t, data, opts).HTML()
	} else {
		canvas = h.Engine.RenderHTML(t, data, opts)
	}

	description := ""
	if t.Description != "" {
		if description, err = markdown.ToHTML(t.Description); err != nil {
			slog.Warn("render template description failed", "id", t.ID, "error", err)
		}
	}
	page, err := h.Renderer.Render(r, "preview", &render.PageData{
		Title:       t.Name,
		Section:     "gallery",
		Institution: h.settings(ctx).Get(models.SettingInstitutionName, ""),
		Data: map[string]any{
			"Name":        t.Name,
			"Description": description,
			"TemplateID":  t.ID.String(),
			"Canvas":      canvas,
			"Scale":       scale,
			"Design":      design,
		},
	})
	if err != nil {
		slog.Error("render preview page failed", "id", t.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if key != "" {
		h.Cache.Set(ctx, key, page)
	}
	writeHTML(w, page)
}

// VerifyPage checks a fingerprint entered by a visitor.
func (h *Handler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fp := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("fingerprint")))
	data := map[string]any{"Fingerprint": fp}

	if fp != "" {
		data["Checked"] = true
		if validFingerprint(fp) {
			c, err := h.Certificates.FindByFingerprint(ctx, fp)
			if err != nil {
				slog.Error("verify certificate failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if c != nil {
				data["Certificate"] = c
			}
		}
	}

	h.Renderer.Page(w, r, "verify", &render.PageData{
		Title:       "Verify",
		Section:     "verify",
		Institution: h.settings(ctx).Get(models.SettingInstitutionName, ""),
		Data:        data,
	})
}

// NotFound renders the 404 page for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.notFoundPage(w, r, "")
}

func (h *Handler) notFoundPage(w http.ResponseWriter, r *http.Request, msg string) {
	data := map[string]any{}
	if msg != "" {
		data["Message"] = msg
	}
	h.Renderer.PageStatus(w, r, http.StatusNotFound, "not_found", &render.PageData{
		Title: "Not found",
		Data:  data,
	})
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}
