// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// ContentSecurityPolicy is sent with every page. Certificate canvases carry
// inline style attributes, so styles allow 'unsafe-inline'; scripts do not.
// Raw-markup certificates render in sandboxed srcdoc frames.
const ContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data: https:; " +
	"frame-src 'self'; " +
	"frame-ancestors 'self'; " +
	"base-uri 'none'; " +
	"form-action 'self'"

// SecureHeaders adds security-related HTTP headers to every response.
// Handlers may replace the Content-Security-Policy, e.g. to sandbox an
// isolated certificate document.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", ContentSecurityPolicy)

		next.ServeHTTP(w, r)
	})
}
