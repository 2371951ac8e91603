package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"certstudio/internal/models"
)

// Validation limits for templates, certificate data and settings.
const (
	maxTemplateNameLen = 200
	maxDescriptionLen  = 10_000
	maxCustomHTMLLen   = 500_000
	maxElements        = 200
	maxElementContent  = 5_000
	maxDataFields      = 50
	maxDataKeyLen      = 64
	maxDataValueLen    = 1_000
	maxSettingValueLen = 2_000
	maxCanvasDimension = 10_000
	maxSrcLen          = 2_000_000 // data URIs are allowed
)

// settingKeys are the branding keys accepted by UpdateSettings.
var settingKeys = map[string]bool{
	models.SettingInstitutionName: true,
	models.SettingInstitutionLogo: true,
	models.SettingSignatoryName:   true,
	models.SettingSignatoryTitle:  true,
	models.SettingWebsite:         true,
}

// validateTemplate checks a template before it is persisted and returns the
// first problem found, or "".
func validateTemplate(t *models.Template) string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "Template name is required."
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "Template name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		return "Description is too long (max 10,000 characters)."
	}
	if len(t.CustomHTML) > maxCustomHTMLLen {
		return "Custom HTML is too long (max 500,000 bytes)."
	}
	if strings.TrimSpace(t.CustomHTML) == "" && (t.Page == nil || t.Theme == nil) {
		return "A page and a theme are required unless custom HTML is set."
	}
	if len(t.Elements) > maxElements {
		return "Too many elements (max 200)."
	}
	if err := t.Validate(); err != nil {
		return "Invalid elements: " + err.Error() + "."
	}
	for _, e := range t.Elements {
		if msg := validateElement(e); msg != "" {
			return msg
		}
	}
	return ""
}

// validateElement checks element geometry, payload sizes and style values.
func validateElement(e models.Element) string {
	if e.W <= 0 || e.W > maxCanvasDimension {
		return fmt.Sprintf("Element %q: width must be between 0 and %d.", e.ID, maxCanvasDimension)
	}
	if h, ok := e.Height(); ok && (h <= 0 || h > maxCanvasDimension) {
		return fmt.Sprintf("Element %q: height must be between 0 and %d.", e.ID, maxCanvasDimension)
	}
	if abs(e.X) > maxCanvasDimension || abs(e.Y) > maxCanvasDimension {
		return fmt.Sprintf("Element %q: position is out of range.", e.ID)
	}
	if utf8.RuneCountInString(e.Content) > maxElementContent {
		return fmt.Sprintf("Element %q: content is too long (max 5,000 characters).", e.ID)
	}
	if len(e.Src) > maxSrcLen {
		return fmt.Sprintf("Element %q: image source is too large.", e.ID)
	}
	if k := e.Style.InvalidKey(); k != "" {
		return fmt.Sprintf("Element %q: style %q is not a valid CSS value.", e.ID, k)
	}
	return ""
}

// validateData checks a certificate data record.
func validateData(data map[string]string) string {
	if len(data) > maxDataFields {
		return "Too many data fields (max 50)."
	}
	for k, v := range data {
		if k == "" || utf8.RuneCountInString(k) > maxDataKeyLen {
			return "Data field names must be 1-64 characters."
		}
		if strings.ContainsAny(k, "{} \t\n") {
			return fmt.Sprintf("Data field %q contains invalid characters.", k)
		}
		if utf8.RuneCountInString(v) > maxDataValueLen {
			return fmt.Sprintf("Data field %q is too long (max 1,000 characters).", k)
		}
	}
	return ""
}

// validateSettings checks a settings update.
func validateSettings(settings map[string]string) string {
	if len(settings) == 0 {
		return "No settings given."
	}
	for k, v := range settings {
		if !settingKeys[k] {
			return fmt.Sprintf("Unknown setting %q.", k)
		}
		if utf8.RuneCountInString(v) > maxSettingValueLen {
			return fmt.Sprintf("Setting %q is too long (max 2,000 characters).", k)
		}
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
