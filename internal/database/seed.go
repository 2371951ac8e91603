package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"certstudio/internal/models"
)

// Seed populates an empty templates table with the starter gallery.
// It does nothing when any template exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	for _, t := range Gallery() {
		page, err := json.Marshal(t.Page)
		if err != nil {
			return fmt.Errorf("seed encode page: %w", err)
		}
		theme, err := json.Marshal(t.Theme)
		if err != nil {
			return fmt.Errorf("seed encode theme: %w", err)
		}
		elements, err := json.Marshal(t.Elements)
		if err != nil {
			return fmt.Errorf("seed encode elements: %w", err)
		}

		_, err = db.Exec(`
			INSERT INTO templates (name, description, page, theme, elements, custom_html)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, t.Name, t.Description, page, theme, elements, t.CustomHTML)
		if err != nil {
			return fmt.Errorf("seed insert template %q: %w", t.Name, err)
		}
	}

	slog.Info("database seeded with starter gallery", "templates", len(Gallery()))
	return nil
}

// Gallery returns the starter templates. Each call builds fresh values.
func Gallery() []models.Template {
	return []models.Template{
		{
			Name: "Classic Achievement",
			Description: "A formal **A4 landscape** certificate with a gold double frame " +
				"and a faint diagonal watermark.\n\nUse it for course completion and awards.",
			Page: &models.Page{Type: models.PageA4, Orientation: models.Landscape},
			Theme: &models.Theme{
				FontFamily: "Georgia, serif",
				TextColor:  "#1f2937",
				Watermark: &models.Watermark{
					Type:    models.WatermarkText,
					Text:    "{{institutionName}}",
					Color:   "#b8860b",
					Opacity: 0.08,
				},
				Border: &models.Border{Type: models.BorderClassic, Color: "#b8860b", Width: 6, Radius: 4},
			},
			Elements: []models.Element{
				{ID: "title", Type: models.ElementTypeText, X: 100, Y: 90, W: 800,
					Content: "Certificate of Achievement",
					Style:   models.Style{"fontSize": 44.0, "textAlign": "center", "fontWeight": "bold", "letterSpacing": 2.0}},
				{ID: "presented", Type: models.ElementTypeText, X: 200, Y: 200, W: 600,
					Content: "This certificate is proudly presented to",
					Style:   models.Style{"fontSize": 18.0, "textAlign": "center", "fontStyle": "italic"}},
				{ID: "recipient", Type: models.ElementTypeText, X: 150, Y: 250, W: 700,
					Content: "{{recipientName}}",
					Style:   models.Style{"fontSize": 40.0, "textAlign": "center", "color": "#b8860b"}},
				{ID: "course", Type: models.ElementTypeText, X: 150, Y: 340, W: 700,
					Content: "for successfully completing {{courseName}}",
					Style:   models.Style{"fontSize": 20.0, "textAlign": "center"}},
				{ID: "date", Type: models.ElementTypeText, X: 120, Y: 540, W: 300,
					Content: "{{date}}",
					Style:   models.Style{"fontSize": 16.0, "textAlign": "center", "borderTop": "1px solid #1f2937", "paddingTop": 6.0}},
				{ID: "instructor", Type: models.ElementTypeText, X: 580, Y: 540, W: 300,
					Content: "{{instructorName}}",
					Style:   models.Style{"fontSize": 16.0, "textAlign": "center", "borderTop": "1px solid #1f2937", "paddingTop": 6.0}},
				{ID: "serial", Type: models.ElementTypeText, X: 350, Y: 630, W: 300,
					Content: "{{certificateId}}",
					Style:   models.Style{"fontSize": 11.0, "textAlign": "center", "color": "#6b7280"}},
			},
		},
		{
			Name: "Modern Completion",
			Description: "A clean **A4 portrait** layout with a solid accent frame and " +
				"a repeated watermark.\n\nSuited to workshops and short courses.",
			Page: &models.Page{Type: models.PageA4, Orientation: models.Portrait},
			Theme: &models.Theme{
				FontFamily: "Helvetica, Arial, sans-serif",
				TextColor:  "#111827",
				Watermark: &models.Watermark{
					Type:       models.WatermarkText,
					Text:       "CERTIFIED",
					Color:      "#2563eb",
					Opacity:    0.05,
					IsRepeated: true,
				},
				Border: &models.Border{Type: models.BorderModern, Color: "#2563eb", Width: 3},
			},
			Elements: []models.Element{
				{ID: "heading", Type: models.ElementTypeText, X: 60, Y: 120, W: 587,
					Content: "Certificate of Completion",
					Style:   models.Style{"fontSize": 36.0, "textAlign": "center", "fontWeight": "600"}},
				{ID: "recipient", Type: models.ElementTypeText, X: 60, Y: 320, W: 587,
					Content: "{{recipientName}}",
					Style:   models.Style{"fontSize": 34.0, "textAlign": "center", "color": "#2563eb"}},
				{ID: "course", Type: models.ElementTypeText, X: 60, Y: 420, W: 587,
					Content: "has completed {{courseName}}\ntaught by {{instructorName}}",
					Style:   models.Style{"fontSize": 18.0, "textAlign": "center", "lineHeight": 1.6}},
				{ID: "date", Type: models.ElementTypeText, X: 60, Y: 820, W: 587,
					Content: "Issued {{date}} · {{certificateId}}",
					Style:   models.Style{"fontSize": 12.0, "textAlign": "center", "color": "#6b7280"}},
			},
		},
	}
}
