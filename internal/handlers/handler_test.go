// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides in-memory repositories and a test router for the
// handler tests. Nothing here needs PostgreSQL or Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certstudio/internal/cache"
	"certstudio/internal/engine"
	"certstudio/internal/models"
	"certstudio/internal/render"
)

var testNow = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

type memTemplates struct {
	mu    sync.Mutex
	items []models.Template
}

func (m *memTemplates) List(context.Context) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Template, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *memTemplates) FindByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.ID == id {
			c := t.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memTemplates) Create(_ context.Context, t *models.Template) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := t.Clone()
	c.ID = uuid.New()
	c.Version = 1
	c.CreatedAt, c.UpdatedAt = testNow, testNow
	m.items = append(m.items, c)
	out := c.Clone()
	return &out, nil
}

func (m *memTemplates) Update(_ context.Context, t *models.Template) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.items {
		if old.ID != t.ID {
			continue
		}
		c := t.Clone()
		c.Version = old.Version + 1
		c.CreatedAt, c.UpdatedAt = old.CreatedAt, testNow
		m.items[i] = c
		out := c.Clone()
		return &out, nil
	}
	return nil, nil
}

func (m *memTemplates) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.items {
		if t.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

type memCertificates struct {
	mu    sync.Mutex
	items []models.IssuedCertificate
}

func (m *memCertificates) Create(_ context.Context, c *models.IssuedCertificate) (*models.IssuedCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Fingerprint == c.Fingerprint {
			return nil, fmt.Errorf("duplicate fingerprint")
		}
	}
	m.items = append(m.items, *c)
	out := *c
	return &out, nil
}

func (m *memCertificates) find(match func(models.IssuedCertificate) bool) *models.IssuedCertificate {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if match(c) {
			out := c
			return &out
		}
	}
	return nil
}

func (m *memCertificates) FindByID(_ context.Context, id uuid.UUID) (*models.IssuedCertificate, error) {
	return m.find(func(c models.IssuedCertificate) bool { return c.ID == id }), nil
}

func (m *memCertificates) FindByFingerprint(_ context.Context, fp string) (*models.IssuedCertificate, error) {
	return m.find(func(c models.IssuedCertificate) bool { return c.Fingerprint == fp }), nil
}

func (m *memCertificates) ListByTemplate(_ context.Context, id uuid.UUID, limit int) ([]models.IssuedCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IssuedCertificate
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].TemplateID == id {
			out = append(out, m.items[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSettings struct {
	mu     sync.Mutex
	values models.SiteSettings
}

func (m *memSettings) All(context.Context) (models.SiteSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := models.SiteSettings{}
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memSettings) SetMany(_ context.Context, settings map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = models.SiteSettings{}
	}
	for k, v := range settings {
		m.values[k] = v
	}
	return nil
}

// memDrafts round-trips drafts through JSON like the Valkey store does.
type memDrafts struct {
	mu    sync.Mutex
	items map[string][]byte
	seq   int
}

func (m *memDrafts) Create(_ context.Context, d *models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string][]byte{}
	}
	m.seq++
	d.ID = fmt.Sprintf("draft%04d", m.seq)
	d.CreatedAt, d.UpdatedAt = testNow, testNow
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.items[d.ID] = payload
	return nil
}

func (m *memDrafts) Get(_ context.Context, id string) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	var d models.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *memDrafts) Save(_ context.Context, d *models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[d.ID]; !ok {
		return cache.ErrDraftNotFound
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.items[d.ID] = payload
	return nil
}

func (m *memDrafts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

type memPageCache struct {
	mu            sync.Mutex
	pages         map[string][]byte
	hits          int
	invalidations []string
}

func (m *memPageCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[key]
	if ok {
		m.hits++
	}
	return page, ok
}

func (m *memPageCache) Set(_ context.Context, key string, page []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = map[string][]byte{}
	}
	m.pages[key] = page
}

func (m *memPageCache) dropPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations = append(m.invalidations, prefix)
	for k := range m.pages {
		if strings.HasPrefix(k, prefix) {
			delete(m.pages, k)
		}
	}
}

func (m *memPageCache) InvalidateCertificate(_ context.Context, id uuid.UUID) {
	m.dropPrefix("cert:" + id.String())
}

func (m *memPageCache) InvalidateTemplate(_ context.Context, id uuid.UUID) {
	m.dropPrefix("preview:" + id.String())
}

func (m *memPageCache) InvalidateAll(context.Context) { m.dropPrefix("") }

type upload struct {
	key, contentType string
	size             int
	public           bool
}

type memStorage struct {
	mu      sync.Mutex
	uploads []upload
	deleted []string
}

func (m *memStorage) put(key, contentType string, body io.Reader, public bool) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload{key: key, contentType: contentType, size: len(data), public: public})
	return nil
}

func (m *memStorage) UploadPublic(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if err := m.put(key, contentType, body, true); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + key, nil
}

func (m *memStorage) UploadOriginal(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	return m.put(key, contentType, body, false)
}

func (m *memStorage) DeleteURL(_ context.Context, rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, rawURL)
	return nil
}

// testEnv bundles a Handler with its fakes and a router.
type testEnv struct {
	h            *Handler
	router       http.Handler
	templates    *memTemplates
	certificates *memCertificates
	settings     *memSettings
	drafts       *memDrafts
	cache        *memPageCache
	storage      *memStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rn, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	env := &testEnv{
		templates:    &memTemplates{},
		certificates: &memCertificates{},
		settings:     &memSettings{},
		drafts:       &memDrafts{},
		cache:        &memPageCache{},
		storage:      &memStorage{},
	}
	env.h = New(Deps{
		Templates:    env.templates,
		Certificates: env.certificates,
		Settings:     env.settings,
		Drafts:       env.drafts,
		Cache:        env.cache,
		Storage:      env.storage,
		Engine:       engine.New(),
		Renderer:     rn,
		BaseURL:      "https://certs.example.com",
		Now:          func() time.Time { return testNow },
	})
	env.router = testRouter(env.h)
	return env
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.Get("/", h.Gallery)
	r.Get("/templates/{id}/preview", h.PreviewPage)
	r.Get("/certificates/{id}", h.CertificatePage)
	r.Get("/certificates/{id}/document", h.CertificateDocument)
	r.Get("/certificates/{id}/download", h.DownloadCertificate)
	r.Get("/verify", h.VerifyPage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/templates", h.ListTemplates)
		r.Post("/templates", h.CreateTemplate)
		r.Get("/templates/{id}", h.GetTemplate)
		r.Put("/templates/{id}", h.UpdateTemplate)
		r.Delete("/templates/{id}", h.DeleteTemplate)
		r.Get("/templates/{id}/render", h.RenderTemplate)
		r.Get("/templates/{id}/certificates", h.ListCertificates)

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

		r.Post("/certificates", h.IssueCertificate)
		r.Get("/certificates/{id}", h.GetCertificate)
		r.Get("/verify/{fingerprint}", h.VerifyCertificate)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Post("/assets", h.UploadAsset)
		r.Delete("/assets", h.DeleteAsset)
	})
	return r
}

// do sends a request with an optional JSON body.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

// seedTemplate stores a structured template with a title and a recipient
// line.
func (env *testEnv) seedTemplate(t *testing.T) *models.Template {
	t.Helper()
	tmpl := validTemplate()
	tmpl.Elements = append(tmpl.Elements, models.Element{
		ID: "recipient", Type: models.ElementTypeText, X: 100, Y: 200, W: 400,
		H: models.Float64(50), Content: "{{recipientName}}",
	})
	created, err := env.templates.Create(context.Background(), &tmpl)
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return created
}
