// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"certstudio/internal/cache"
	"certstudio/internal/engine"
	"certstudio/internal/imaging"
	"certstudio/internal/models"
	"certstudio/internal/render"
	"certstudio/internal/slug"
)

// qrSize is the edge length in pixels of the verification QR code.
const qrSize = 192

type issueRequest struct {
	TemplateID uuid.UUID         `json:"template_id"`
	Data       map[string]string `json:"data"`
}

// certificateView adds the public links to an issued certificate.
type certificateView struct {
	*models.IssuedCertificate
	ViewURL   string `json:"view_url"`
	VerifyURL string `json:"verify_url"`
}

func (h *Handler) newCertificateView(c *models.IssuedCertificate) certificateView {
	return certificateView{
		IssuedCertificate: c,
		ViewURL:           h.BaseURL + "/certificates/" + c.ID.String(),
		VerifyURL:         h.verifyURL(c.Fingerprint),
	}
}

func (h *Handler) verifyURL(fingerprint string) string {
	return h.BaseURL + "/verify?fingerprint=" + url.QueryEscape(fingerprint)
}

// IssueCertificate binds a template snapshot to recipient data. Branding
// settings are folded into the stored data so later setting changes do not
// alter issued certificates.
func (h *Handler) IssueCertificate(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TemplateID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "template_id is required")
		return
	}
	if msg := validateData(req.Data); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	ctx := r.Context()
	t, err := h.Templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		serverError(w, "find template failed", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	c := &models.IssuedCertificate{
		ID:         uuid.New(),
		TemplateID: t.ID,
		Template:   t.Clone(),
		IssuedAt:   h.Now().UTC(),
	}
	c.Data = h.settings(ctx).Context(req.Data)
	if strings.TrimSpace(c.Data[engine.TokenCertificateID]) == "" {
		c.Data[engine.TokenCertificateID] = "CERT-" + strings.ToUpper(c.ID.String()[:8])
	}
	c.Data[engine.TokenDate] = engine.FormatDate(c.Data[engine.TokenDate], c.IssuedAt)

	if c.Fingerprint, err = fingerprint(c); err != nil {
		serverError(w, "fingerprint certificate failed", err)
		return
	}

	created, err := h.Certificates.Create(ctx, c)
	if err != nil {
		serverError(w, "issue certificate failed", err)
		return
	}
	slog.Info("certificate issued", "id", created.ID, "template", t.ID, "recipient", created.RecipientName())
	writeJSON(w, http.StatusCreated, h.newCertificateView(created))
}

// fingerprint returns the hex BLAKE2b-256 digest of the certificate id,
// issue time, template snapshot and data.
func fingerprint(c *models.IssuedCertificate) (string, error) {
	tmpl, err := json.Marshal(c.Template)
	if err != nil {
		return "", fmt.Errorf("marshal template: %w", err)
	}
	data, err := json.Marshal(c.Data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	hash, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, part := range [][]byte{
		[]byte(c.ID.String()),
		[]byte(c.IssuedAt.Format(time.RFC3339Nano)),
		tmpl,
		data,
	} {
		hash.Write(part)
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// GetCertificate returns an issued certificate.
func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCertificate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.newCertificateView(c))
}

// ListCertificates returns the latest certificates issued from a template.
func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit := int(queryFloat(r.URL.Query(), "limit"))
	if limit > 500 {
		limit = 500
	}
	certs, err := h.Certificates.ListByTemplate(r.Context(), id, limit)
	if err != nil {
		serverError(w, "list certificates failed", err)
		return
	}
	views := make([]certificateView, 0, len(certs))
	for i := range certs {
		views = append(views, h.newCertificateView(&certs[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// VerifyCertificate looks a certificate up by fingerprint.
func (h *Handler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	fp := strings.ToLower(chi.URLParam(r, "fingerprint"))
	if !validFingerprint(fp) {
		writeError(w, http.StatusBadRequest, "invalid fingerprint")
		return
	}
	c, err := h.Certificates.FindByFingerprint(r.Context(), fp)
	if err != nil {
		serverError(w, "verify certificate failed", err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":       true,
		"certificate": h.newCertificateView(c),
	})
}

func validFingerprint(fp string) bool {
	if len(fp) != 2*blake2b.Size256 {
		return false
	}
	_, err := hex.DecodeString(fp)
	return err == nil
}

// CertificatePage serves the printable certificate page with its
// verification QR code. Pages are cached in the L2 cache.
func (h *Handler) CertificatePage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundPage(w, r, "This certificate does not exist.")
		return
	}
	key := cache.CertificateKey(id, "page")
	if h.Cache != nil {
		if page, ok := h.Cache.Get(r.Context(), key); ok {
			writeHTML(w, page)
			return
		}
	}

	c, err := h.Certificates.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find certificate failed", err)
		return
	}
	if c == nil {
		h.notFoundPage(w, r, "This certificate does not exist.")
		return
	}

	verify := h.verifyURL(c.Fingerprint)
	qr, err := imaging.QRDataURI(verify, qrSize)
	if err != nil {
		slog.Warn("certificate qr code failed", "id", c.ID, "error", err)
	}
	canvas := h.Engine.RenderHTML(&c.Template, c.Data, engine.Options{
		FixedScale: 1,
		Now:        func() time.Time { return c.IssuedAt },
	})

	page, err := h.Renderer.Render(r, "certificate", &render.PageData{
		Title:       certificateTitle(c),
		Institution: c.Data[models.SettingInstitutionName],
		Data: map[string]any{
			"CertificateID": c.ID.String(),
			"Canvas":        canvas,
			"QR":            qr,
			"IssuedAt":      c.IssuedAt,
			"VerifyURL":     verify,
			"DocumentURL":   "/certificates/" + c.ID.String() + "/download",
		},
	})
	if err != nil {
		serverError(w, "render certificate page failed", err)
		return
	}
	if h.Cache != nil {
		h.Cache.Set(r.Context(), key, page)
	}
	writeHTML(w, page)
}

// CertificateDocument serves the raw-markup document of a certificate
// issued from a custom HTML template. The document runs sandboxed.
func (h *Handler) CertificateDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCertificate(w, r)
	if !ok {
		return
	}
	doc := engine.Document(&c.Template, c.Data, engine.Options{
		Now: func() time.Time { return c.IssuedAt },
	})
	if doc == "" {
		writeError(w, http.StatusNotFound, "certificate has no raw document")
		return
	}
	w.Header().Set("Content-Security-Policy", "sandbox")
	writeHTML(w, []byte(doc))
}

// DownloadCertificate serves a self-contained HTML file of the certificate.
func (h *Handler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCertificate(w, r)
	if !ok {
		return
	}
	now := func() time.Time { return c.IssuedAt }
	doc := engine.Document(&c.Template, c.Data, engine.Options{Now: now})
	if doc == "" {
		canvas := engine.Render(&c.Template, c.Data, engine.Options{FixedScale: 1, Now: now}).HTML()
		doc = "<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><title>" +
			html.EscapeString(certificateTitle(c)) +
			"</title><style>@page{margin:0}body{margin:0}</style></head>\n<body>" +
			canvas + "</body>\n</html>\n"
	}

	name := slug.Filename(".html", c.RecipientName(), c.Template.Name)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Security-Policy", "sandbox")
	writeHTML(w, []byte(doc))
}

func (h *Handler) loadCertificate(w http.ResponseWriter, r *http.Request) (*models.IssuedCertificate, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.Certificates.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find certificate failed", err)
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "certificate not found")
		return nil, false
	}
	return c, true
}

func certificateTitle(c *models.IssuedCertificate) string {
	if name := c.RecipientName(); name != "" {
		return "Certificate for " + name
	}
	return "Certificate"
}
