// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

// CertificateStore persists issued certificates.
type CertificateStore struct {
	db *sql.DB
}

// NewCertificateStore creates a new CertificateStore with the given database connection.
func NewCertificateStore(db *sql.DB) *CertificateStore {
	return &CertificateStore{db: db}
}

const certificateColumns = `id, template_id, template, data, fingerprint, issued_at`

func scanCertificate(row scanner) (*models.IssuedCertificate, error) {
	c := &models.IssuedCertificate{}
	var templateID uuid.NullUUID
	var snapshot, data []byte
	if err := row.Scan(&c.ID, &templateID, &snapshot, &data, &c.Fingerprint, &c.IssuedAt); err != nil {
		return nil, err
	}
	if templateID.Valid {
		c.TemplateID = templateID.UUID
	}
	if err := json.Unmarshal(snapshot, &c.Template); err != nil {
		return nil, fmt.Errorf("decode certificate %s template: %w", c.ID, err)
	}
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return nil, fmt.Errorf("decode certificate %s data: %w", c.ID, err)
	}
	if c.Data == nil {
		c.Data = map[string]string{}
	}
	return c, nil
}

// Create stores a certificate. The fingerprint must be unique.
func (s *CertificateStore) Create(ctx context.Context, c *models.IssuedCertificate) (*models.IssuedCertificate, error) {
	snapshot, err := json.Marshal(c.Template)
	if err != nil {
		return nil, fmt.Errorf("encode certificate template: %w", err)
	}
	data := c.Data
	if data == nil {
		data = map[string]string{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode certificate data: %w", err)
	}

	templateID := uuid.NullUUID{UUID: c.TemplateID, Valid: c.TemplateID != uuid.Nil}
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	created, err := scanCertificate(s.db.QueryRowContext(ctx, `
		INSERT INTO certificates (id, template_id, template, data, fingerprint, issued_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING `+certificateColumns,
		id, templateID, snapshot, encoded, c.Fingerprint, nullTime(c),
	))
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return created, nil
}

func nullTime(c *models.IssuedCertificate) sql.NullTime {
	return sql.NullTime{Time: c.IssuedAt, Valid: !c.IssuedAt.IsZero()}
}

// FindByID retrieves a certificate by its UUID. Returns nil if not found.
func (s *CertificateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.IssuedCertificate, error) {
	c, err := scanCertificate(s.db.QueryRowContext(ctx, `
		SELECT `+certificateColumns+` FROM certificates WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate by id: %w", err)
	}
	return c, nil
}

// FindByFingerprint retrieves a certificate by its fingerprint. Returns nil
// if not found.
func (s *CertificateStore) FindByFingerprint(ctx context.Context, fingerprint string) (*models.IssuedCertificate, error) {
	c, err := scanCertificate(s.db.QueryRowContext(ctx, `
		SELECT `+certificateColumns+` FROM certificates WHERE fingerprint = $1
	`, fingerprint))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate by fingerprint: %w", err)
	}
	return c, nil
}

// ListByTemplate returns the certificates issued from a template, newest first.
func (s *CertificateStore) ListByTemplate(ctx context.Context, templateID uuid.UUID, limit int) ([]models.IssuedCertificate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+certificateColumns+`
		FROM certificates
		WHERE template_id = $1
		ORDER BY issued_at DESC
		LIMIT $2
	`, templateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []models.IssuedCertificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}
