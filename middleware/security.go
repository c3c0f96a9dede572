package middleware

import (
	"net/http"
	"strings"
)

// Hosts the layout and checkout pages load scripts, frames and beacons from.
var thirdPartyHosts = []string{
	"https://www.googletagmanager.com",
	"https://www.google-analytics.com",
	"https://pagead2.googlesyndication.com",
	"https://www.paypal.com",
	"https://js.stripe.com",
}

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' " + strings.Join(thirdPartyHosts, " "),
	"connect-src 'self' https://api.stripe.com https://www.paypal.com https://www.google-analytics.com",
	"frame-src https://js.stripe.com https://www.paypal.com https://googleads.g.doubleclick.net",
	"img-src 'self' data: https:",
	"style-src 'self' 'unsafe-inline'",
}, "; ")

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", contentSecurityPolicy)

		if r.URL.Path == "/contact" || r.URL.Path == "/payment-success" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}

		next.ServeHTTP(w, r)
	})
}
