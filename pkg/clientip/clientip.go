package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the peer address of the request without the port.
// Proxy headers are ignored; use FromRequest when the app sits behind a trusted proxy.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// FromRequest resolves the client IP. When trustProxy is true the first entry of
// X-Forwarded-For (then X-Real-IP) wins over the peer address.
func FromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	return RealClientIP(r)
}
