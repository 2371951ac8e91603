// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

func sampleTemplate(name string) *models.Template {
	return &models.Template{
		Name:        name,
		Description: "Sample *layout*",
		Page:        &models.Page{Type: models.PageA5, Orientation: models.Portrait},
		Theme:       &models.Theme{TextColor: "#111111", ShowGrid: true},
		Elements: []models.Element{
			{ID: "t1", Type: models.ElementTypeText, X: 10, Y: 20, W: 300, Content: "{{recipientName}}",
				Style: models.Style{"fontSize": 24.0}},
			{ID: "i1", Type: models.ElementTypeImage, X: 40, Y: 50, W: 120, H: models.Float64(60), Src: "https://example.com/logo.png"},
		},
	}
}

func TestTemplateStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleTemplate("Test Template "+uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, created.ID) })

	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if created.Version != 1 {
		t.Errorf("version: got %d, want 1", created.Version)
	}

	found, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected template, got nil")
	}
	if found.Page == nil || found.Page.Type != models.PageA5 {
		t.Errorf("page: got %+v", found.Page)
	}
	if found.Theme == nil || !found.Theme.ShowGrid {
		t.Errorf("theme: got %+v", found.Theme)
	}
	if len(found.Elements) != 2 {
		t.Fatalf("elements: got %d, want 2", len(found.Elements))
	}
	if h, ok := found.Elements[1].Height(); !ok || h != 60 {
		t.Errorf("image height: got %v %v", h, ok)
	}
	if _, ok := found.Elements[0].Height(); ok {
		t.Error("text element should stay auto-height")
	}
	if got := found.Elements[0].Style.Number("fontSize", 0); got != 24 {
		t.Errorf("fontSize: got %v", got)
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for a missing template")
	}
}

func TestTemplateStoreNullPageAndTheme(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	created, err := s.Create(ctx, &models.Template{Name: "Raw " + uuid.NewString()[:8], CustomHTML: "<p>{{recipientName}}</p>"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, created.ID) })

	if created.Page != nil || created.Theme != nil {
		t.Error("nil page and theme should round-trip as nil")
	}
	if created.Elements == nil || len(created.Elements) != 0 {
		t.Errorf("elements: got %#v, want empty slice", created.Elements)
	}
	if created.CustomHTML != "<p>{{recipientName}}</p>" {
		t.Errorf("custom html: got %q", created.CustomHTML)
	}
}

func TestTemplateStoreUpdateBumpsVersion(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleTemplate("Versioned "+uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, created.ID) })

	next := created.MoveElementPosition("t1", 99, 88)
	updated, err := s.Update(ctx, &next)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated template")
	}
	if updated.Version != 2 {
		t.Errorf("version: got %d, want 2", updated.Version)
	}
	if e, _ := updated.FindElement("t1"); e.X != 99 || e.Y != 88 {
		t.Errorf("position: got (%v, %v)", e.X, e.Y)
	}

	ghost := sampleTemplate("ghost")
	ghost.ID = uuid.New()
	res, err := s.Update(ctx, ghost)
	if err != nil {
		t.Fatalf("Update missing: %v", err)
	}
	if res != nil {
		t.Error("updating a missing template should return nil")
	}
}

func TestTemplateStoreListAndDelete(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleTemplate("Listed "+uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, created.ID) })

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, tmpl := range list {
		if tmpl.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("created template missing from List")
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if gone != nil {
		t.Error("template should be gone after Delete")
	}
}
