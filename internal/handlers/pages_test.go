package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"certstudio/internal/models"
)

func TestGalleryPage(t *testing.T) {
	env := newTestEnv(t)
	env.settings.values = models.SiteSettings{models.SettingInstitutionName: "Acme Academy"}
	tmpl := env.seedTemplate(t)

	w := env.do(t, http.MethodGet, "/", nil)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{
		"Acme Academy",
		tmpl.Name,
		"/templates/" + tmpl.ID.String() + "/preview",
		"A4 landscape",
		`data-role="certificate-canvas"`,
		"Alex Morgan",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("gallery missing %q", want)
		}
	}
}

func TestGalleryEmpty(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "No templates yet.") {
		t.Error("expected empty gallery message")
	}
}

func TestPreviewPage(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.seedTemplate(t)
	path := "/templates/" + tmpl.ID.String() + "/preview?scale=0.5&recipientName=Grace"

	w := env.do(t, http.MethodGet, path, nil)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Grace") || !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("preview should render the query data inside the layout")
	}
	if strings.Contains(body, "is-interactive") {
		t.Error("preview without design mode must not be interactive")
	}

	expectStatus(t, env.do(t, http.MethodGet, path, nil), http.StatusOK)
	if env.cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", env.cache.hits)
	}

	// HTMX partials are cached apart from full pages.
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX preview should be a partial")
	}
	if env.cache.hits != 1 {
		t.Errorf("partial served from the full-page cache entry")
	}
}

func TestPreviewDesignMode(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.seedTemplate(t)

	w := env.do(t, http.MethodGet, "/templates/"+tmpl.ID.String()+"/preview?design=1", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "is-interactive") {
		t.Error("design preview should mark elements interactive")
	}
	if len(env.cache.pages) != 0 {
		t.Error("design previews must not be cached")
	}
}

func TestPreviewNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/templates/nope/preview", "/templates/0f8fad5b-d9cb-469f-a165-70867728950e/preview"} {
		w := env.do(t, http.MethodGet, path, nil)
		expectStatus(t, w, http.StatusNotFound)
		if !strings.Contains(w.Body.String(), "This template does not exist.") {
			t.Errorf("%s: expected not-found page", path)
		}
	}
}

func TestVerifyPage(t *testing.T) {
	env := newTestEnv(t)
	c := issue(t, env, env.seedTemplate(t), map[string]string{"recipientName": "Ada"})

	tests := []struct {
		name, query, want string
	}{
		{"form only", "", `name="fingerprint"`},
		{"valid", "?fingerprint=" + c.Fingerprint, `data-result="valid"`},
		{"unknown", "?fingerprint=" + strings.Repeat("a", 64), `data-result="invalid"`},
		{"malformed", "?fingerprint=abc", `data-result="invalid"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/verify"+tt.query, nil)
			expectStatus(t, w, http.StatusOK)
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("verify page missing %q", tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/nowhere", nil)
	expectStatus(t, w, http.StatusNotFound)
	if !strings.Contains(w.Body.String(), "does not exist") {
		t.Error("expected HTML not-found page")
	}

	w = env.do(t, http.MethodGet, "/api/nowhere", nil)
	expectStatus(t, w, http.StatusNotFound)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("API 404 content type = %q", ct)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/health", nil)
	expectStatus(t, w, http.StatusOK)
	if decodeBody[map[string]string](t, w)["status"] != "ok" {
		t.Error("unexpected health body")
	}
}
