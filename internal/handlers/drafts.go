// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certstudio/internal/cache"
	"certstudio/internal/engine"
	"certstudio/internal/models"
	"certstudio/internal/positioning"
)

// Defaults for drafts opened without a template.
const (
	untitledTemplate = "Untitled certificate"
	defaultTextWidth = 300
)

// editError is returned by draft edit functions to abort without saving.
type editError struct {
	status int
	msg    string
}

func badRequest(format string, args ...any) *editError {
	return &editError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func notFound(msg string) *editError {
	return &editError{status: http.StatusNotFound, msg: msg}
}

// editDraft loads the {draftID} draft, applies edit and saves the result.
// The saved draft is written as the response.
func (h *Handler) editDraft(w http.ResponseWriter, r *http.Request, edit func(d *models.Draft) *editError) {
	if d, ok := h.mutateDraft(w, r, edit); ok {
		writeJSON(w, http.StatusOK, d)
	}
}

// mutateDraft is editDraft without the response. It reports false when an
// error response was already written.
func (h *Handler) mutateDraft(w http.ResponseWriter, r *http.Request, edit func(d *models.Draft) *editError) (*models.Draft, bool) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return nil, false
	}
	if e := edit(d); e != nil {
		writeError(w, e.status, e.msg)
		return nil, false
	}
	if err := h.Drafts.Save(r.Context(), d); err != nil {
		if errors.Is(err, cache.ErrDraftNotFound) {
			writeError(w, http.StatusNotFound, "draft not found")
			return nil, false
		}
		serverError(w, "save draft failed", err)
		return nil, false
	}
	return d, true
}

func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) (*models.Draft, bool) {
	d, err := h.Drafts.Get(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		serverError(w, "load draft failed", err)
		return nil, false
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return nil, false
	}
	return d, true
}

type openDraftRequest struct {
	TemplateID *uuid.UUID        `json:"template_id"`
	Copy       bool              `json:"copy"` // edit a copy instead of the template itself
	Name       string            `json:"name"`
	Data       map[string]string `json:"data"`
}

// OpenDraft starts an editing session, empty or from an existing template.
func (h *Handler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if msg := validateData(req.Data); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	d := &models.Draft{Data: req.Data}
	if req.TemplateID != nil {
		t, err := h.Templates.FindByID(r.Context(), *req.TemplateID)
		if err != nil {
			serverError(w, "find template failed", err)
			return
		}
		if t == nil {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		d.Template = t.Clone()
		if req.Copy {
			d.Template.ID = uuid.Nil
			d.Template.Version = 0
			d.Template.Name = "Copy of " + t.Name
		} else {
			id := t.ID
			d.TemplateID = &id
		}
	} else {
		d.Template = models.Template{
			Page:     &models.Page{Type: models.PageA4, Orientation: models.Landscape},
			Theme:    &models.Theme{FontFamily: "Georgia, serif", TextColor: "#111827"},
			Elements: []models.Element{},
		}
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		d.Template.Name = name
	}
	if d.Template.Name == "" {
		d.Template.Name = untitledTemplate
	}

	if err := h.Drafts.Create(r.Context(), d); err != nil {
		serverError(w, "create draft failed", err)
		return
	}
	slog.Info("draft opened", "draft", d.ID, "template", d.TemplateID)
	writeJSON(w, http.StatusCreated, d)
}

// GetDraft returns a draft.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CloseDraft discards a draft without saving.
func (h *Handler) CloseDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.Delete(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		serverError(w, "delete draft failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateDraftRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Data        map[string]string `json:"data"`
}

// UpdateDraft changes the template name, description or the sample data.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req updateDraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.editDraft(w, r, func(d *models.Draft) *editError {
		if req.Name != nil {
			d.Template.Name = *req.Name
		}
		if req.Description != nil {
			d.Template.Description = *req.Description
		}
		if req.Data != nil {
			if msg := validateData(req.Data); msg != "" {
				return badRequest("%s", msg)
			}
			d.Data = req.Data
		}
		return nil
	})
}

// AddElement appends an element on top of the paint order and selects it.
// Missing ids are generated.
func (h *Handler) AddElement(w http.ResponseWriter, r *http.Request) {
	var e models.Element
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if e.ID == "" {
		e.ID = "el-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	if e.Type == models.ElementTypeText && e.W == 0 {
		e.W = defaultTextWidth
	}
	if e.Type != models.ElementTypeText && e.Type != models.ElementTypeImage {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown element type %q", e.Type))
		return
	}
	if msg := validateElement(e); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	h.editDraft(w, r, func(d *models.Draft) *editError {
		if d.Template.ElementIndex(e.ID) >= 0 {
			return &editError{status: http.StatusConflict, msg: fmt.Sprintf("element %q already exists", e.ID)}
		}
		if len(d.Template.Elements) >= maxElements {
			return badRequest("too many elements")
		}
		d.Template = d.Template.AddElement(e)
		d.Select(e.ID)
		return nil
	})
}

// elementPatchKeys lists the element fields PatchElement accepts.
var elementPatchKeys = map[string]bool{
	"x": true, "y": true, "w": true, "h": true,
	"content": true, "src": true, "style": true,
}

// PatchElement updates some fields of an element. "h": null switches the
// element to auto height. Style keys are merged; a null style value
// removes the key.
func (h *Handler) PatchElement(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for k := range patch {
		if !elementPatchKeys[k] {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown element field %q", k))
			return
		}
	}
	id := chi.URLParam(r, "elementID")

	h.editDraft(w, r, func(d *models.Draft) *editError {
		current, ok := d.Template.FindElement(id)
		if !ok {
			return notFound("element not found")
		}
		next, err := applyElementPatch(current, patch)
		if err != nil {
			return badRequest("%v", err)
		}
		if msg := validateElement(next); msg != "" {
			return &editError{status: http.StatusUnprocessableEntity, msg: msg}
		}
		d.Template = d.Template.UpdateElement(id, func(models.Element) models.Element { return next })
		return nil
	})
}

func applyElementPatch(e models.Element, patch map[string]json.RawMessage) (models.Element, error) {
	for key, raw := range patch {
		var err error
		switch key {
		case "x":
			err = json.Unmarshal(raw, &e.X)
		case "y":
			err = json.Unmarshal(raw, &e.Y)
		case "w":
			err = json.Unmarshal(raw, &e.W)
		case "h":
			var hv *float64
			err = json.Unmarshal(raw, &hv)
			e.H = hv
		case "content":
			err = json.Unmarshal(raw, &e.Content)
		case "src":
			err = json.Unmarshal(raw, &e.Src)
		case "style":
			var changes map[string]any
			if err = json.Unmarshal(raw, &changes); err == nil {
				style := e.Style.Clone()
				if style == nil {
					style = models.Style{}
				}
				for k, v := range changes {
					if v == nil {
						delete(style, k)
						continue
					}
					style[k] = v
				}
				e.Style = style
			}
		}
		if err != nil {
			return e, fmt.Errorf("field %s: %w", key, err)
		}
	}
	return e, nil
}

// RemoveElement deletes an element. Removing the selected element clears
// the selection.
func (h *Handler) RemoveElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "elementID")
	h.editDraft(w, r, func(d *models.Draft) *editError {
		if d.Template.ElementIndex(id) < 0 {
			return notFound("element not found")
		}
		d.Template = d.Template.RemoveElement(id)
		d.Select(d.Selected)
		return nil
	})
}

type layerRequest struct {
	Direction models.LayerDirection `json:"direction"`
}

// MoveLayer moves an element one step up or down in paint order.
func (h *Handler) MoveLayer(w http.ResponseWriter, r *http.Request) {
	var req layerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Direction != models.LayerUp && req.Direction != models.LayerDown {
		writeError(w, http.StatusBadRequest, `direction must be "up" or "down"`)
		return
	}
	id := chi.URLParam(r, "elementID")
	h.editDraft(w, r, func(d *models.Draft) *editError {
		if d.Template.ElementIndex(id) < 0 {
			return notFound("element not found")
		}
		d.Template = d.Template.MoveLayer(id, req.Direction)
		return nil
	})
}

// UpdateTheme sets one theme key. The request body is the JSON value.
func (h *Handler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large")
		return
	}
	value, err := models.DecodeThemeValue(key, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.editDraft(w, r, func(d *models.Draft) *editError {
		t, err := d.Template.UpdateTheme(key, value)
		if err != nil {
			return badRequest("%v", err)
		}
		d.Template = t
		return nil
	})
}

var (
	pageTypes    = map[models.PageType]bool{models.PageA4: true, models.PageA5: true, models.PageLetter: true}
	orientations = map[models.Orientation]bool{models.Landscape: true, models.Portrait: true}
)

// UpdatePage replaces the page format.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var p models.Page
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !pageTypes[p.Type] || !orientations[p.Orientation] {
		writeError(w, http.StatusBadRequest, "unknown page type or orientation")
		return
	}
	h.editDraft(w, r, func(d *models.Draft) *editError {
		d.Template = d.Template.WithPage(p)
		return nil
	})
}

type customHTMLRequest struct {
	CustomHTML string `json:"customHtml"`
}

// UpdateCustomHTML sets or clears the raw markup of the draft template.
func (h *Handler) UpdateCustomHTML(w http.ResponseWriter, r *http.Request) {
	var req customHTMLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.CustomHTML) > maxCustomHTMLLen {
		writeError(w, http.StatusUnprocessableEntity, "custom HTML is too long")
		return
	}
	h.editDraft(w, r, func(d *models.Draft) *editError {
		d.Template = d.Template.Clone()
		d.Template.CustomHTML = req.CustomHTML
		return nil
	})
}

type selectRequest struct {
	ElementID string `json:"element_id"`
}

// SelectElement changes the selected element. Unknown ids clear it.
func (h *Handler) SelectElement(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.editDraft(w, r, func(d *models.Draft) *editError {
		d.Select(req.ElementID)
		return nil
	})
}

// gestureEvent is one recorded pointer event in screen pixels.
type gestureEvent struct {
	Type    string  `json:"type"`   // down, move, up or cancel
	Source  string  `json:"source"` // mouse (default) or touch
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Touches int     `json:"touches"`
}

func (ev gestureEvent) pointer() positioning.PointerEvent {
	src := positioning.SourceMouse
	if ev.Source == "touch" {
		src = positioning.SourceTouch
	}
	return positioning.PointerEvent{Source: src, X: ev.X, Y: ev.Y, Touches: ev.Touches}
}

type gestureRequest struct {
	ElementID string         `json:"element_id"`
	Target    string         `json:"target"` // body (default) or handle
	Scale     float64        `json:"scale"`
	Width     float64        `json:"width"`
	Events    []gestureEvent `json:"events"`
}

type gestureResponse struct {
	Draft     *models.Draft `json:"draft"`
	Committed bool          `json:"committed"`
	State     string        `json:"state"`
	Live      liveGeometry  `json:"live"`
}

// liveGeometry is the element geometry shown at the end of the replay.
type liveGeometry struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	W float64  `json:"w"`
	H *float64 `json:"h"`
}

// ReplayGesture feeds recorded pointer events for one element through a
// design surface. Committed drags and resizes patch the draft template;
// a gesture without a release is dropped.
func (h *Handler) ReplayGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Events) == 0 || len(req.Events) > 10_000 {
		writeError(w, http.StatusBadRequest, "events must contain 1-10000 entries")
		return
	}
	for _, ev := range req.Events {
		switch ev.Type {
		case "down", "move", "up", "cancel":
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", ev.Type))
			return
		}
	}

	var resp gestureResponse
	d, ok := h.mutateDraft(w, r, func(d *models.Draft) *editError {
		if d.Template.ElementIndex(req.ElementID) < 0 {
			return notFound("element not found")
		}

		var s *engine.Surface
		s = engine.NewSurface(d.Template, d.Data, engine.Options{
			FixedScale:        clampScale(req.Scale),
			ContainerWidth:    req.Width,
			SelectedElementID: d.Selected,
			GridSize:          h.GridSize,
			OnSelectElement: func(id string) {
				d.Select(id)
				s.SetSelected(d.Selected)
			},
			OnUpdateTemplate: func(t models.Template) {
				d.Template = t
				s.SetTemplate(t)
				resp.Committed = true
			},
		})

		for _, ev := range req.Events {
			switch ev.Type {
			case "down":
				if req.Target == "handle" {
					s.HandleDown(req.ElementID, ev.pointer())
				} else {
					s.PointerDown(req.ElementID, ev.pointer())
				}
			case "move":
				s.PointerMove(ev.pointer())
			case "up":
				s.PointerUp()
			case "cancel":
				s.Cancel()
			}
		}
		if f := s.Frame(req.ElementID); f != nil {
			pos, size := f.Live()
			resp.State = f.State().String()
			resp.Live = liveGeometry{X: pos.X, Y: pos.Y, W: size.W, H: size.H}
		}
		return nil
	})
	if !ok {
		return
	}
	resp.Draft = d
	writeJSON(w, http.StatusOK, resp)
}

// RenderDraft renders the draft in design mode and returns the HTML
// fragment with its geometry.
func (h *Handler) RenderDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	s := engine.NewSurface(d.Template, d.Data, engine.Options{
		FixedScale:        clampScale(queryFloat(q, "scale")),
		ContainerWidth:    queryFloat(q, "width"),
		SelectedElementID: d.Selected,
		GridSize:          h.GridSize,
	})
	size := d.Template.Page.Size()
	scale := s.Scale()

	writeJSON(w, http.StatusOK, map[string]any{
		"html":     s.Render().HTML(),
		"scale":    scale,
		"width":    size.Width * scale,
		"height":   size.Height * scale,
		"mode":     renderMode(&d.Template),
		"selected": d.Selected,
	})
}

// SaveDraft writes the draft template to the database, creating it on the
// first save. The draft stays open.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	t := d.Template.Clone()
	if msg := validateTemplate(&t); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	ctx := r.Context()
	var saved *models.Template
	var err error
	if d.TemplateID == nil {
		saved, err = h.Templates.Create(ctx, &t)
	} else {
		t.ID = *d.TemplateID
		saved, err = h.Templates.Update(ctx, &t)
	}
	if err != nil {
		serverError(w, "save draft template failed", err)
		return
	}
	if saved == nil {
		writeError(w, http.StatusConflict, "the template was deleted; open a new draft to save a copy")
		return
	}
	h.invalidateTemplate(ctx, saved.ID)

	id := saved.ID
	d.TemplateID = &id
	d.Template = saved.Clone()
	d.Select(d.Selected)
	if err := h.Drafts.Save(ctx, d); err != nil && !errors.Is(err, cache.ErrDraftNotFound) {
		slog.Warn("refresh draft after save failed", "draft", d.ID, "error", err)
	}

	slog.Info("draft saved", "draft", d.ID, "template", saved.ID, "version", saved.Version)
	writeJSON(w, http.StatusOK, newTemplateView(*saved))
}

// clampScale bounds a requested display scale. 0 means "fit".
func clampScale(v float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v < 0.05:
		return 0.05
	case v > 4:
		return 4
	}
	return v
}
