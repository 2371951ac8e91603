// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// render.go provides a Valkey-backed cache of rendered HTML (L2).
// Issued certificate pages and template previews are stored here so repeat
// views skip the database and the renderer entirely.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// renderKeyPrefix is the Valkey key prefix for cached renderings.
	renderKeyPrefix = "render:"

	// DefaultRenderTTL is how long a rendering stays cached.
	DefaultRenderTTL = 10 * time.Minute
)

// RenderCache manages rendered HTML in Valkey.
type RenderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRenderCache creates a render cache backed by the given Valkey client.
func NewRenderCache(client *redis.Client, ttl time.Duration) *RenderCache {
	if ttl == 0 {
		ttl = DefaultRenderTTL
	}
	return &RenderCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML. A miss or a Valkey error both report false.
func (rc *RenderCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, renderKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("render cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("render cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML with the configured TTL.
func (rc *RenderCache) Set(ctx context.Context, key string, html []byte) {
	if err := rc.client.Set(ctx, renderKeyPrefix+key, html, rc.ttl).Err(); err != nil {
		slog.Warn("render cache set error", "key", key, "error", err)
	}
}

// InvalidateCertificate removes every cached view of an issued certificate.
func (rc *RenderCache) InvalidateCertificate(ctx context.Context, id uuid.UUID) {
	rc.invalidate(ctx, renderKeyPrefix+"cert:"+id.String()+":*")
}

// InvalidateTemplate removes every cached preview of a template.
func (rc *RenderCache) InvalidateTemplate(ctx context.Context, id uuid.UUID) {
	rc.invalidate(ctx, renderKeyPrefix+"preview:"+id.String()+":*")
}

// InvalidateAll removes all cached renderings. Used when site settings
// change, since every certificate page shows them.
func (rc *RenderCache) InvalidateAll(ctx context.Context) {
	rc.invalidate(ctx, renderKeyPrefix+"*")
}

func (rc *RenderCache) invalidate(ctx context.Context, pattern string) {
	deleted, err := deleteByPattern(ctx, rc.client, pattern)
	if err != nil {
		slog.Warn("render cache invalidate error", "pattern", pattern, "error", err)
		return
	}
	if deleted > 0 {
		slog.Debug("render cache invalidated", "pattern", pattern, "deleted", deleted)
	}
}

// CertificateKey returns the cache key for one view of an issued certificate.
func CertificateKey(id uuid.UUID, view string) string {
	return fmt.Sprintf("cert:%s:%s", id, view)
}

// PreviewKey returns the cache key for a template preview. digest covers
// the data context and scale of the render.
func PreviewKey(id uuid.UUID, version int, digest string) string {
	return fmt.Sprintf("preview:%s:%d:%s", id, version, digest)
}
