// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns recipient names and template titles into ASCII
// identifiers for download filenames and asset keys.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace runs become a single hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// fold decomposes accented letters and drops the combining marks, so
// "José" becomes "Jose". Letters without a decomposition are left alone
// and later stripped by Generate.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Zoë Müller, 2026" → "zoe-muller-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(fold(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Filename builds a download filename from name parts, skipping parts that
// slug to nothing. ext includes the dot. It falls back to "certificate".
func Filename(ext string, parts ...string) string {
	var slugs []string
	for _, p := range parts {
		if s := Generate(p); s != "" {
			slugs = append(slugs, s)
		}
	}
	base := strings.Join(slugs, "-")
	if len(base) > 120 {
		base = strings.TrimRight(base[:120], "-")
	}
	if base == "" {
		base = "certificate"
	}
	return base + ext
}
