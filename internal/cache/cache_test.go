// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{renderKeyPrefix + "*", draftKeyPrefix + "*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestRenderCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRenderCache(client, time.Minute)
	ctx := context.Background()
	key := CertificateKey(uuid.New(), "page")

	data, ok := rc.Get(ctx, key)
	if ok || data != nil {
		t.Error("expected cache miss")
	}

	html := []byte("<div>certificate</div>")
	rc.Set(ctx, key, html)

	data, ok = rc.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != string(html) {
		t.Errorf("data mismatch: got %q, want %q", data, html)
	}
}

func TestRenderCacheInvalidateCertificate(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRenderCache(client, time.Minute)
	ctx := context.Background()

	id, other := uuid.New(), uuid.New()
	rc.Set(ctx, CertificateKey(id, "page"), []byte("page"))
	rc.Set(ctx, CertificateKey(id, "document"), []byte("doc"))
	rc.Set(ctx, CertificateKey(other, "page"), []byte("other"))

	rc.InvalidateCertificate(ctx, id)

	for _, view := range []string{"page", "document"} {
		if _, ok := rc.Get(ctx, CertificateKey(id, view)); ok {
			t.Errorf("expected miss for %s view after invalidation", view)
		}
	}
	if _, ok := rc.Get(ctx, CertificateKey(other, "page")); !ok {
		t.Error("other certificate should stay cached")
	}
}

func TestRenderCacheInvalidateTemplate(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRenderCache(client, time.Minute)
	ctx := context.Background()

	id := uuid.New()
	rc.Set(ctx, PreviewKey(id, 1, "a"), []byte("v1"))
	rc.Set(ctx, PreviewKey(id, 2, "b"), []byte("v2"))

	rc.InvalidateTemplate(ctx, id)

	if _, ok := rc.Get(ctx, PreviewKey(id, 1, "a")); ok {
		t.Error("expected miss for version 1")
	}
	if _, ok := rc.Get(ctx, PreviewKey(id, 2, "b")); ok {
		t.Error("expected miss for version 2")
	}
}

func TestRenderCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRenderCache(client, time.Minute)
	ctx := context.Background()

	keys := []string{CertificateKey(uuid.New(), "page"), PreviewKey(uuid.New(), 1, "x")}
	for _, k := range keys {
		rc.Set(ctx, k, []byte("x"))
	}
	rc.InvalidateAll(ctx)
	for _, k := range keys {
		if _, ok := rc.Get(ctx, k); ok {
			t.Errorf("expected miss for %q after InvalidateAll", k)
		}
	}
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	if got := CertificateKey(id, "page"); got != "cert:0f8fad5b-d9cb-469f-a165-70867728950e:page" {
		t.Errorf("CertificateKey = %q", got)
	}
	if got := PreviewKey(id, 3, "abc"); got != "preview:0f8fad5b-d9cb-469f-a165-70867728950e:3:abc" {
		t.Errorf("PreviewKey = %q", got)
	}
}

func TestDefaultTTLs(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	if rc := NewRenderCache(client, 0); rc.ttl != DefaultRenderTTL {
		t.Errorf("expected DefaultRenderTTL (%v), got %v", DefaultRenderTTL, rc.ttl)
	}
	if ds := NewDraftStore(client, 0); ds.ttl != DefaultDraftTTL {
		t.Errorf("expected DefaultDraftTTL (%v), got %v", DefaultDraftTTL, ds.ttl)
	}
}
