package utils

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

const PaymentSuccessPath = "/payment-success"

// PaymentSuccessURL is where both payment providers send the buyer after a
// completed payment. The VIN is carried as an opaque query parameter.
func PaymentSuccessURL(origin, vin string) string {
	u := strings.TrimRight(origin, "/") + PaymentSuccessPath
	if vin == "" {
		return u
	}
	return u + "?" + url.Values{"vin": []string{vin}}.Encode()
}

// RequestOrigin returns scheme://host for r. A configured origin always
// wins; X-Forwarded-Proto is honoured only when trustProxy is set.
func RequestOrigin(r *http.Request, configured string, trustProxy bool) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if trustProxy {
		if proto := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return scheme + "://" + r.Host
}

// ClientIP returns the caller address. Proxy headers are read only when
// trustProxy is set; the X-Forwarded-For entry used is the one appended by
// the nearest proxy, since earlier entries come from the client.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if ip := strings.TrimSpace(ips[len(ips)-1]); ip != "" {
				return ip
			}
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
		if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
