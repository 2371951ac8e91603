// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"certstudio/internal/models"
)

// SiteSettingStore manages institutional branding in the database.
type SiteSettingStore struct {
	db *sql.DB
}

// NewSiteSettingStore returns a new SiteSettingStore backed by the given database.
func NewSiteSettingStore(db *sql.DB) *SiteSettingStore {
	return &SiteSettingStore{db: db}
}

const upsertSetting = `
	INSERT INTO site_settings (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// All returns every setting as a convenience map.
func (s *SiteSettingStore) All(ctx context.Context) (models.SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(models.SiteSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Get returns a single setting by key, or the fallback if not found or empty.
func (s *SiteSettingStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting %s: %w", key, err)
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// Set upserts a single setting.
func (s *SiteSettingStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertSetting, key, value, time.Now()); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// SetMany updates multiple settings in a single transaction.
func (s *SiteSettingStore) SetMany(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSetting)
	if err != nil {
		return fmt.Errorf("prepare settings upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
			return fmt.Errorf("set setting %s: %w", k, err)
		}
	}

	return tx.Commit()
}
