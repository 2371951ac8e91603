// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"certstudio/internal/imaging"
	"certstudio/internal/models"
	"certstudio/internal/slug"
	"certstudio/internal/storage"
)

// assetKinds are the accepted values of the "kind" form field.
var assetKinds = map[string]bool{
	"background": true,
	"logo":       true,
	"signature":  true,
	"watermark":  true,
	"image":      true,
}

// assetResponse describes a stored asset. Width and Height are a suggested
// element size in logical pixels that fits the page.
type assetResponse struct {
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Info         imaging.Info `json:"info"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
}

// UploadAsset stores an image for use as a background, logo, signature or
// watermark. The original goes to the private bucket, the served copy and
// a picker thumbnail to the public one.
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "asset storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large, maximum size is %d MB", h.MaxUploadBytes>>20))
		return
	}
	kind := r.FormValue("kind")
	if kind == "" {
		kind = "image"
	}
	if !assetKinds[kind] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown asset kind %q", kind))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		serverError(w, "read upload failed", err)
		return
	}
	info, err := imaging.Probe(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			writeError(w, http.StatusUnsupportedMediaType, "only PNG, JPEG, GIF and WebP images are accepted")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := slug.Generate(strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)))
	if name == "" {
		name = kind
	}
	key := storage.AssetKey(kind, name+imaging.Extension(info.ContentType), h.Now())

	ctx := r.Context()
	if err := h.Storage.UploadOriginal(ctx, key, info.ContentType, bytes.NewReader(data), int64(len(data))); err != nil {
		serverError(w, "upload original failed", err)
		return
	}
	url, err := h.Storage.UploadPublic(ctx, key, info.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		serverError(w, "upload asset failed", err)
		return
	}

	resp := assetResponse{URL: url, Info: info}
	thumb, err := imaging.Thumbnail(data, imaging.ThumbWidth)
	switch {
	case err != nil:
		slog.Warn("thumbnail generation failed", "key", key, "error", err)
	case thumb != nil:
		thumbKey := thumbnailOf(key)
		thumbURL, err := h.Storage.UploadPublic(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb)))
		if err != nil {
			slog.Warn("thumbnail upload failed", "key", thumbKey, "error", err)
		} else {
			resp.ThumbnailURL = thumbURL
		}
	}

	page := models.ResolvePageSize(models.PageA4, models.Landscape)
	if kind == "background" {
		resp.Width, resp.Height = page.Width, page.Height
	} else {
		resp.Width, resp.Height = imaging.FitSize(info, page.Width/2, page.Height/2)
	}

	slog.Info("asset uploaded", "key", key, "kind", kind, "size", len(data))
	writeJSON(w, http.StatusCreated, resp)
}

type deleteAssetRequest struct {
	URL string `json:"url"`
}

// thumbnailOf returns the key or URL of the picker thumbnail stored next to an
// asset by UploadAsset.
func thumbnailOf(assetURL string) string {
	return strings.TrimSuffix(assetURL, filepath.Ext(assetURL)) + "_thumb.jpg"
}

// DeleteAsset removes an uploaded asset and its thumbnail. URLs outside the
// asset storage are ignored.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "asset storage is not configured")
		return
	}
	var req deleteAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	ctx := r.Context()
	if err := h.Storage.DeleteURL(ctx, req.URL); err != nil {
		serverError(w, "delete asset failed", err)
		return
	}
	if err := h.Storage.DeleteURL(ctx, thumbnailOf(req.URL)); err != nil {
		slog.Warn("delete asset thumbnail failed", "url", req.URL, "error", err)
	}

	slog.Info("asset deleted", "url", req.URL)
	w.WriteHeader(http.StatusNoContent)
}
