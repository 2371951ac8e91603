// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store persists certificate templates, issued certificates and
// site settings in PostgreSQL. Template geometry is stored as JSONB so the
// element list round-trips exactly as the editor produced it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, name, description, page, theme, elements, custom_html, version, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*models.Template, error) {
	t := &models.Template{}
	var page, theme, elements []byte
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &page, &theme, &elements,
		&t.CustomHTML, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeTemplateJSON(t, page, theme, elements); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", t.ID, err)
	}
	return t, nil
}

func decodeTemplateJSON(t *models.Template, page, theme, elements []byte) error {
	if len(page) > 0 && string(page) != "null" {
		t.Page = &models.Page{}
		if err := json.Unmarshal(page, t.Page); err != nil {
			return fmt.Errorf("page: %w", err)
		}
	}
	if len(theme) > 0 && string(theme) != "null" {
		t.Theme = &models.Theme{}
		if err := json.Unmarshal(theme, t.Theme); err != nil {
			return fmt.Errorf("theme: %w", err)
		}
	}
	t.Elements = []models.Element{}
	if len(elements) > 0 {
		if err := json.Unmarshal(elements, &t.Elements); err != nil {
			return fmt.Errorf("elements: %w", err)
		}
		if t.Elements == nil {
			t.Elements = []models.Element{}
		}
	}
	return nil
}

// encodeTemplateJSON returns the JSONB arguments for a template. A nil page
// or theme is stored as SQL NULL.
func encodeTemplateJSON(t *models.Template) (page, theme, elements []byte, err error) {
	if t.Page != nil {
		if page, err = json.Marshal(t.Page); err != nil {
			return nil, nil, nil, fmt.Errorf("encode page: %w", err)
		}
	}
	if t.Theme != nil {
		if theme, err = json.Marshal(t.Theme); err != nil {
			return nil, nil, nil, fmt.Errorf("encode theme: %w", err)
		}
	}
	els := t.Elements
	if els == nil {
		els = []models.Element{}
	}
	if elements, err = json.Marshal(els); err != nil {
		return nil, nil, nil, fmt.Errorf("encode elements: %w", err)
	}
	return page, theme, elements, nil
}

// List returns all templates, oldest first so the seeded gallery keeps its order.
func (s *TemplateStore) List(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// Create inserts a new template at version 1 and returns the stored row.
func (s *TemplateStore) Create(ctx context.Context, t *models.Template) (*models.Template, error) {
	page, theme, elements, err := encodeTemplateJSON(t)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	created, err := scanTemplate(s.db.QueryRowContext(ctx, `
		INSERT INTO templates (name, description, page, theme, elements, custom_html)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		t.Name, t.Description, page, theme, elements, t.CustomHTML,
	))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

// Update replaces a template's content and bumps its version. Returns nil
// if the template does not exist.
func (s *TemplateStore) Update(ctx context.Context, t *models.Template) (*models.Template, error) {
	page, theme, elements, err := encodeTemplateJSON(t)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	updated, err := scanTemplate(s.db.QueryRowContext(ctx, `
		UPDATE templates SET
			name = $1, description = $2, page = $3, theme = $4, elements = $5,
			custom_html = $6, version = version + 1, updated_at = NOW()
		WHERE id = $7
		RETURNING `+templateColumns,
		t.Name, t.Description, page, theme, elements, t.CustomHTML, t.ID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return updated, nil
}

// Delete removes a template by its UUID. Issued certificates keep their
// snapshot; their template reference is cleared.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
