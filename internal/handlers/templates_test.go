package handlers

import (
	"net/http"
	"strings"
	"testing"

	"certstudio/internal/models"
)

func TestTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"name":        "Classic",
		"description": "A **formal** layout",
		"page":        map[string]string{"type": "A4", "orientation": "landscape"},
		"theme":       map[string]any{"fontFamily": "Georgia, serif", "textColor": "#111"},
		"elements": []map[string]any{
			{"id": "name", "type": "text", "x": 10, "y": 20, "w": 300, "content": "{{recipientName}}"},
		},
	}
	w := env.do(t, http.MethodPost, "/api/templates", body)
	expectStatus(t, w, http.StatusCreated)
	created := decodeBody[templateView](t, w)
	if created.Version != 1 || created.Name != "Classic" {
		t.Fatalf("unexpected created template: %+v", created.Template)
	}
	if !strings.Contains(created.DescriptionHTML, "<strong>formal</strong>") {
		t.Errorf("description_html = %q", created.DescriptionHTML)
	}
	if len(created.Placeholders) != 1 || created.Placeholders[0] != "recipientName" {
		t.Errorf("placeholders = %v", created.Placeholders)
	}

	path := "/api/templates/" + created.ID.String()
	expectStatus(t, env.do(t, http.MethodGet, path, nil), http.StatusOK)

	body["name"] = "Classic v2"
	w = env.do(t, http.MethodPut, path, body)
	expectStatus(t, w, http.StatusOK)
	if updated := decodeBody[templateView](t, w); updated.Version != 2 || updated.Name != "Classic v2" {
		t.Errorf("update: got version %d name %q", updated.Version, updated.Name)
	}

	w = env.do(t, http.MethodGet, "/api/templates", nil)
	expectStatus(t, w, http.StatusOK)
	if list := decodeBody[[]templateView](t, w); len(list) != 1 {
		t.Errorf("list: got %d templates, want 1", len(list))
	}

	expectStatus(t, env.do(t, http.MethodDelete, path, nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, path, nil), http.StatusNotFound)
}

func TestCreateTemplateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"unknown field", map[string]any{"name": "x", "owner": "me"}, http.StatusBadRequest},
		{"missing name", map[string]any{"customHtml": "<p></p>"}, http.StatusUnprocessableEntity},
		{"missing page", map[string]any{"name": "x", "theme": map[string]any{}}, http.StatusUnprocessableEntity},
		{"raw markup only", map[string]any{"name": "x", "customHtml": "<p>{{recipientName}}</p>"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/templates", tt.body)
			expectStatus(t, w, tt.want)
		})
	}
}

func TestTemplateNotFound(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/api/templates/not-a-uuid", nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/templates/0f8fad5b-d9cb-469f-a165-70867728950e", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPut, "/api/templates/0f8fad5b-d9cb-469f-a165-70867728950e", map[string]any{
		"name":  "x",
		"page":  map[string]string{"type": "A4", "orientation": "portrait"},
		"theme": map[string]any{},
	}), http.StatusNotFound)
}

func TestRenderTemplate(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.seedTemplate(t)

	w := env.do(t, http.MethodGet, "/api/templates/"+tmpl.ID.String()+"/render?width=500&recipientName=Ada", nil)
	expectStatus(t, w, http.StatusOK)
	resp := decodeBody[map[string]any](t, w)

	html, _ := resp["html"].(string)
	if !strings.Contains(html, "Ada") {
		t.Errorf("render should substitute query data, got %q", html)
	}
	if resp["mode"] != "structured" {
		t.Errorf("mode = %v", resp["mode"])
	}
	if resp["scale"] != 0.5 || resp["width"] != 500.0 {
		t.Errorf("geometry: scale %v width %v", resp["scale"], resp["width"])
	}
}

func TestRenderTemplateFillsSampleData(t *testing.T) {
	env := newTestEnv(t)
	env.settings.values = models.SiteSettings{models.SettingInstitutionName: "Acme Academy"}
	tmpl := env.seedTemplate(t)

	w := env.do(t, http.MethodGet, "/api/templates/"+tmpl.ID.String()+"/render", nil)
	expectStatus(t, w, http.StatusOK)
	html, _ := decodeBody[map[string]any](t, w)["html"].(string)
	if !strings.Contains(html, "Alex Morgan") {
		t.Errorf("expected placeholder recipient in %q", html)
	}
}

func TestUpdateTemplateInvalidatesCaches(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.seedTemplate(t)
	env.cache.Set(t.Context(), "preview:"+tmpl.ID.String()+":1:abc:page", []byte("old"))

	body := map[string]any{
		"name":  "Renamed",
		"page":  tmpl.Page,
		"theme": tmpl.Theme,
	}
	expectStatus(t, env.do(t, http.MethodPut, "/api/templates/"+tmpl.ID.String(), body), http.StatusOK)
	if len(env.cache.pages) != 0 {
		t.Errorf("expected cached previews to be dropped, have %d", len(env.cache.pages))
	}
}

func TestPlaceholders(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Elements = append(tmpl.Elements,
		models.Element{ID: "a", Type: models.ElementTypeText, W: 100, Content: "{{ recipientName }} completed {{courseName}}"},
		models.Element{ID: "b", Type: models.ElementTypeText, W: 100, Content: "{{recipientName}} on {{date}}"},
		models.Element{ID: "c", Type: models.ElementTypeImage, W: 100, Src: "https://cdn.example.com/{{logo}}.png"},
	)
	got := placeholders(&tmpl)
	want := []string{"recipientName", "courseName", "date"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("structured placeholders = %v, want %v", got, want)
	}

	tmpl.CustomHTML = "<p>{{certificateId}} {{recipientName}}</p>"
	if got := placeholders(&tmpl); strings.Join(got, ",") != "certificateId,recipientName" {
		t.Errorf("raw placeholders = %v", got)
	}
}
