// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// certstudio. It organizes routes into the public HTML pages and the JSON
// API used by the editor and the issuing backend.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"certstudio/internal/handlers"
	"certstudio/internal/middleware"
	"certstudio/web"
)

// New creates the configured Chi router. limiter throttles the endpoints
// that write to storage (issuing and uploads); nil disables throttling.
func New(h *handlers.Handler, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)

	r.NotFound(h.NotFound)

	throttled := func(next http.HandlerFunc) http.Handler {
		if limiter == nil {
			return next
		}
		return limiter.Middleware(next)
	}

	// Static assets.
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: embedded static assets: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", staticCache(http.FileServerFS(static))))

	// Public pages.
	r.Get("/", h.Gallery)
	r.Get("/templates/{id}/preview", h.PreviewPage)
	r.Route("/certificates/{id}", func(r chi.Router) {
		r.Get("/", h.CertificatePage)
		r.Get("/document", h.CertificateDocument)
		r.Get("/download", h.DownloadCertificate)
	})
	r.Get("/verify", h.VerifyPage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
			r.Put("/{id}", h.UpdateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
			r.Get("/{id}/render", h.RenderTemplate)
			r.Get("/{id}/certificates", h.ListCertificates)
		})

		// Editor drafts
		r.Post("/drafts", h.OpenDraft)
		r.Route("/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Patch("/", h.UpdateDraft)
			r.Delete("/", h.CloseDraft)
			r.Post("/elements", h.AddElement)
			r.Patch("/elements/{elementID}", h.PatchElement)
			r.Delete("/elements/{elementID}", h.RemoveElement)
			r.Post("/elements/{elementID}/layer", h.MoveLayer)
			r.Put("/theme/{key}", h.UpdateTheme)
			r.Put("/page", h.UpdatePage)
			r.Put("/custom-html", h.UpdateCustomHTML)
			r.Put("/selection", h.SelectElement)
			r.Post("/gestures", h.ReplayGesture)
			r.Get("/render", h.RenderDraft)
			r.Post("/save", h.SaveDraft)
		})

		// Issued certificates
		r.Method(http.MethodPost, "/certificates", throttled(h.IssueCertificate))
		r.Get("/certificates/{id}", h.GetCertificate)
		r.Get("/verify/{fingerprint}", h.VerifyCertificate)

		// Branding and assets
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Method(http.MethodPost, "/assets", throttled(h.UploadAsset))
		r.Delete("/assets", h.DeleteAsset)
	})

	return r
}

// staticCache marks static assets cacheable for a day.
func staticCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		next.ServeHTTP(w, r)
	})
}
