// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"html"
	"regexp"
	"strings"
	"time"
)

// placeholderRe matches {{key}} with optional inner whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Substitute replaces every {{key}} in content with data[key]. Unknown keys
// become the empty string; no placeholder survives substitution.
func Substitute(content string, data map[string]string) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	return placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return data[key]
	})
}

// Placeholders returns the distinct keys referenced by content, in order of
// first appearance.
func Placeholders(content string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Tokens recognized in raw-markup templates.
const (
	TokenRecipientName  = "recipientName"
	TokenCourseName     = "courseName"
	TokenDate           = "date"
	TokenInstructorName = "instructorName"
	TokenCertificateID  = "certificateId"
)

// rawFallbacks is shown when the data context has no value for a token.
var rawFallbacks = map[string]string{
	TokenRecipientName:  "Student Name",
	TokenCourseName:     "Course Name",
	TokenInstructorName: "Instructor Name",
	TokenCertificateID:  "CERT-000000",
}

var rawTokenRe = regexp.MustCompile(`\{\{\s*(recipientName|courseName|date|instructorName|certificateId)\s*\}\}`)

// DateLayout is the display format of the date token (US locale short date).
const DateLayout = "1/2/2006"

// dateInputLayouts are tried in order when parsing a date value.
var dateInputLayouts = []string{time.RFC3339, "2006-01-02", DateLayout, "January 2, 2006"}

// FormatDate renders a date value for display. Empty values format now;
// values that do not parse are passed through untouched.
func FormatDate(value string, now time.Time) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Format(DateLayout)
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout)
		}
	}
	return value
}

// SubstituteRaw fills the fixed token set into author-supplied markup.
// Missing values fall back to readable placeholders and every value is
// HTML-escaped. Other {{...}} sequences are left as written.
func SubstituteRaw(markup string, data map[string]string, now time.Time) string {
	return rawTokenRe.ReplaceAllStringFunc(markup, func(m string) string {
		token := rawTokenRe.FindStringSubmatch(m)[1]
		if token == TokenDate {
			return html.EscapeString(FormatDate(data[TokenDate], now))
		}
		if v := data[token]; v != "" {
			return html.EscapeString(v)
		}
		return html.EscapeString(rawFallbacks[token])
	})
}
