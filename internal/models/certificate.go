// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// IssuedCertificate is a template snapshot bound to recipient data. The
// snapshot keeps the certificate renderable after the template is edited.
type IssuedCertificate struct {
	ID          uuid.UUID         `json:"id"`
	TemplateID  uuid.UUID         `json:"template_id"`
	Template    Template          `json:"template"`
	Data        map[string]string `json:"data"`
	Fingerprint string            `json:"fingerprint"`
	IssuedAt    time.Time         `json:"issued_at"`
}

// RecipientName returns the recipient for display, or "" if unset.
func (c *IssuedCertificate) RecipientName() string {
	return c.Data["recipientName"]
}
