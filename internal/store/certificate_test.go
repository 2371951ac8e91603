package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

func TestCertificateStoreLifecycle(t *testing.T) {
	db := testDB(t)
	templates := NewTemplateStore(db)
	certs := NewCertificateStore(db)
	ctx := context.Background()

	tmpl, err := templates.Create(ctx, sampleTemplate("Issued From "+uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("Create template: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, tmpl.ID) })

	fp := uuid.NewString() + uuid.NewString()[:28]
	t.Cleanup(func() { cleanCertificates(t, db, fp) })

	issuedAt := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	created, err := certs.Create(ctx, &models.IssuedCertificate{
		TemplateID:  tmpl.ID,
		Template:    *tmpl,
		Data:        map[string]string{"recipientName": "Ada Lovelace"},
		Fingerprint: fp,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		t.Fatalf("Create certificate: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
	if !created.IssuedAt.Equal(issuedAt) {
		t.Errorf("issued_at: got %v, want %v", created.IssuedAt, issuedAt)
	}
	if created.RecipientName() != "Ada Lovelace" {
		t.Errorf("recipient: got %q", created.RecipientName())
	}

	byFP, err := certs.FindByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("FindByFingerprint: %v", err)
	}
	if byFP == nil || byFP.ID != created.ID {
		t.Fatalf("FindByFingerprint: got %+v", byFP)
	}
	if len(byFP.Template.Elements) != 2 {
		t.Errorf("snapshot elements: got %d", len(byFP.Template.Elements))
	}

	list, err := certs.ListByTemplate(ctx, tmpl.ID, 10)
	if err != nil {
		t.Fatalf("ListByTemplate: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListByTemplate: got %d, want 1", len(list))
	}

	// The snapshot survives deletion of its template.
	if err := templates.Delete(ctx, tmpl.ID); err != nil {
		t.Fatalf("Delete template: %v", err)
	}
	orphan, err := certs.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if orphan == nil {
		t.Fatal("certificate should survive template deletion")
	}
	if orphan.TemplateID != uuid.Nil {
		t.Errorf("template id should be cleared, got %s", orphan.TemplateID)
	}
	if orphan.Template.Name != tmpl.Name {
		t.Errorf("snapshot name: got %q", orphan.Template.Name)
	}
}

func TestCertificateStoreDuplicateFingerprint(t *testing.T) {
	db := testDB(t)
	certs := NewCertificateStore(db)
	ctx := context.Background()

	fp := uuid.NewString() + uuid.NewString()[:28]
	t.Cleanup(func() { cleanCertificates(t, db, fp) })

	c := &models.IssuedCertificate{Template: *sampleTemplate("dup"), Fingerprint: fp}
	if _, err := certs.Create(ctx, c); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := certs.Create(ctx, c); err == nil {
		t.Error("expected a unique violation for a repeated fingerprint")
	}
}

func TestCertificateStoreMissing(t *testing.T) {
	db := testDB(t)
	certs := NewCertificateStore(db)
	ctx := context.Background()

	c, err := certs.FindByID(ctx, uuid.New())
	if err != nil || c != nil {
		t.Errorf("FindByID missing: got %v, %v", c, err)
	}
	c, err = certs.FindByFingerprint(ctx, "nope")
	if err != nil || c != nil {
		t.Errorf("FindByFingerprint missing: got %v, %v", c, err)
	}
}
