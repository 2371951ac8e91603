// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
)

// GetSettings returns the institutional branding settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.All(r.Context())
	if err != nil {
		serverError(w, "load settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings changes branding settings. Every cached rendering shows
// them, so both cache levels are cleared.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateSettings(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	for k, v := range req {
		req[k] = strings.TrimSpace(v)
	}

	ctx := r.Context()
	if err := h.Settings.SetMany(ctx, req); err != nil {
		serverError(w, "save settings failed", err)
		return
	}
	h.Engine.InvalidateAll()
	if h.Cache != nil {
		h.Cache.InvalidateAll(ctx)
	}
	slog.Info("settings updated", "keys", len(req))

	s, err := h.Settings.All(ctx)
	if err != nil {
		serverError(w, "load settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
