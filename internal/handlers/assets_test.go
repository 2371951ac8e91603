package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, kind, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if kind != "" {
		if err := mw.WriteField("kind", kind); err != nil {
			t.Fatal(err)
		}
	}
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAsset(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, "logo", "Acme Logo.png", pngBytes(t, 800, 400)))
	expectStatus(t, rec, http.StatusCreated)
	resp := decodeBody[assetResponse](t, rec)

	if !strings.HasPrefix(resp.URL, "https://cdn.example.com/assets/logo/2026/03/") ||
		!strings.HasSuffix(resp.URL, "-acme-logo.png") {
		t.Errorf("url = %q", resp.URL)
	}
	if !strings.HasSuffix(resp.ThumbnailURL, "-acme-logo_thumb.jpg") {
		t.Errorf("thumbnail_url = %q", resp.ThumbnailURL)
	}
	if resp.Info.Width != 800 || resp.Info.ContentType != "image/png" {
		t.Errorf("info = %+v", resp.Info)
	}
	if resp.Width != 500 || resp.Height != 250 {
		t.Errorf("suggested size = %vx%v, want 500x250", resp.Width, resp.Height)
	}

	var private, public int
	for _, u := range env.storage.uploads {
		if u.public {
			public++
		} else {
			private++
		}
	}
	if private != 1 || public != 2 {
		t.Errorf("uploads: %d private, %d public", private, public)
	}
}

func TestUploadAssetSmallImageHasNoThumbnail(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, "", "sig.png", pngBytes(t, 100, 40)))
	expectStatus(t, rec, http.StatusCreated)
	if resp := decodeBody[assetResponse](t, rec); resp.ThumbnailURL != "" || resp.Width != 100 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUploadAssetErrors(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want int
	}{
		{"not an image", func(t *testing.T) *http.Request {
			return uploadRequest(t, "logo", "notes.txt", []byte("hello world"))
		}, http.StatusUnsupportedMediaType},
		{"unknown kind", func(t *testing.T) *http.Request {
			return uploadRequest(t, "avatar", "a.png", pngBytes(t, 10, 10))
		}, http.StatusBadRequest},
		{"no file", func(t *testing.T) *http.Request {
			return uploadRequest(t, "logo", "", nil)
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, tt.req(t))
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestUploadAssetWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	env.h.Storage = nil
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, "logo", "a.png", pngBytes(t, 10, 10)))
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestDeleteAsset(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/api/assets", map[string]string{
		"url": "https://cdn.example.com/assets/logo/2026/03/x-acme.png",
	})
	expectStatus(t, rec, http.StatusNoContent)

	want := []string{
		"https://cdn.example.com/assets/logo/2026/03/x-acme.png",
		"https://cdn.example.com/assets/logo/2026/03/x-acme_thumb.jpg",
	}
	if len(env.storage.deleted) != 2 || env.storage.deleted[0] != want[0] || env.storage.deleted[1] != want[1] {
		t.Errorf("deleted = %v, want %v", env.storage.deleted, want)
	}
}

func TestDeleteAssetRequiresURL(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/assets", map[string]string{"url": " "}), http.StatusBadRequest)
	if len(env.storage.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", env.storage.deleted)
	}
}
