// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Draft is an in-progress editing session. The editor owns the draft's
// template; every edit replaces it wholesale and the draft is only written
// to the templates table when saved.
type Draft struct {
	ID         string            `json:"id"`
	TemplateID *uuid.UUID        `json:"template_id,omitempty"` // nil for drafts not yet saved
	Template   Template          `json:"template"`
	Selected   string            `json:"selected,omitempty"` // selected element id
	Data       map[string]string `json:"data,omitempty"`     // sample values for previews
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Select changes the selected element. Ids that are not in the template
// clear the selection.
func (d *Draft) Select(id string) {
	if d.Template.ElementIndex(id) < 0 {
		d.Selected = ""
		return
	}
	d.Selected = id
}
