// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// drafts.go stores in-progress design drafts in Valkey as JSON with a
// sliding TTL. A draft that is not touched for the TTL expires on its own.
package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"certstudio/internal/models"
)

const (
	// DefaultDraftTTL is how long an untouched draft lives.
	DefaultDraftTTL = 24 * time.Hour

	// draftKeyPrefix namespaces draft keys in Valkey.
	draftKeyPrefix = "draft:"

	// draftIDLength is the byte length of the random draft ID (16 bytes = 32 hex chars).
	draftIDLength = 16
)

// ErrDraftNotFound is returned when saving a draft that expired or was deleted.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore manages draft lifecycle in Valkey.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewDraftStore creates a draft store backed by the given Valkey client.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl == 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{client: client, ttl: ttl, now: time.Now}
}

// Create assigns a new random ID to d and stores it.
func (s *DraftStore) Create(ctx context.Context, d *models.Draft) error {
	id, err := generateDraftID()
	if err != nil {
		return fmt.Errorf("draft create: %w", err)
	}
	now := s.now()
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft marshal: %w", err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("draft store: %w", err)
	}
	return nil
}

// Get loads a draft. Returns (nil, nil) if it does not exist or expired.
func (s *DraftStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	if !validDraftID(id) {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("draft get: %w", err)
	}

	var d models.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("draft unmarshal: %w", err)
	}
	return &d, nil
}

// Save replaces a stored draft and resets its TTL. It never resurrects a
// draft that already expired: ErrDraftNotFound is returned instead.
func (s *DraftStore) Save(ctx context.Context, d *models.Draft) error {
	if !validDraftID(d.ID) {
		return ErrDraftNotFound
	}
	d.UpdatedAt = s.now()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft marshal: %w", err)
	}

	ok, err := s.client.SetXX(ctx, draftKeyPrefix+d.ID, payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("draft save: %w", err)
	}
	if !ok {
		return ErrDraftNotFound
	}
	return nil
}

// Delete removes a draft. Deleting a missing draft is not an error.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	if !validDraftID(id) {
		return nil
	}
	if err := s.client.Del(ctx, draftKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("draft delete: %w", err)
	}
	return nil
}

// generateDraftID creates a cryptographically random draft identifier.
func generateDraftID() (string, error) {
	b := make([]byte, draftIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validDraftID rejects anything that is not a generated ID, which also keeps
// glob characters out of Valkey keys.
func validDraftID(id string) bool {
	if len(id) != draftIDLength*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
