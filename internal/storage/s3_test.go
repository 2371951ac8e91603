package storage

import (
	"strings"
	"testing"
	"time"
)

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New(Config{Endpoint: "https://s3.example.com"})
	if err != nil || c != nil {
		t.Fatalf("New() = (%v, %v), want (nil, nil)", c, err)
	}
}

func TestNewRequiresPublicBucket(t *testing.T) {
	_, err := New(Config{Endpoint: "https://s3.example.com", AccessKey: "a", SecretKey: "b"})
	if err == nil {
		t.Fatal("New() should fail without a public bucket")
	}
}

func testClient(t *testing.T, publicURL string) *Client {
	t.Helper()
	c, err := New(Config{
		Endpoint:     "https://s3.example.com/",
		Region:       "us-east-1",
		AccessKey:    "AKIATEST",
		SecretKey:    "secret",
		PublicBucket: "assets",
		PublicURL:    publicURL,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestFileURL(t *testing.T) {
	if got := testClient(t, "").FileURL("a/b.png"); got != "https://s3.example.com/assets/a/b.png" {
		t.Errorf("FileURL() = %q", got)
	}
	if got := testClient(t, "https://cdn.example.com/").FileURL("a/b.png"); got != "https://cdn.example.com/a/b.png" {
		t.Errorf("FileURL() with CDN = %q", got)
	}
}

func TestExtractS3Key(t *testing.T) {
	c := testClient(t, "https://cdn.example.com")
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://cdn.example.com/assets/logo/x.png", "assets/logo/x.png", true},
		{"https://s3.example.com/assets/y.png", "y.png", true},
		{"https://elsewhere.example.com/z.png", "", false},
		{"data:image/png;base64,AAAA", "", false},
	}
	for _, tt := range tests {
		got, ok := c.ExtractS3Key(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractS3Key(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAssetKey(t *testing.T) {
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	key := AssetKey("background", "paper.jpg", now)
	if !strings.HasPrefix(key, "assets/background/2026/03/") {
		t.Errorf("AssetKey() = %q, unexpected prefix", key)
	}
	if !strings.HasSuffix(key, "-paper.jpg") {
		t.Errorf("AssetKey() = %q, unexpected suffix", key)
	}
	if AssetKey("", "x.png", now) == AssetKey("", "x.png", now) {
		t.Error("AssetKey() should be unique per call")
	}
	if !strings.HasPrefix(AssetKey("", "x.png", now), "assets/misc/") {
		t.Error("empty kind should map to misc")
	}
}
