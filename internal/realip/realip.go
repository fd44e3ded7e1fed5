// Package realip derives a client IP from proxy headers or the transport
// peer address.
//
// Neither header is verified: a reverse proxy in front of the service must
// rewrite them, otherwise clients can spoof their address.
package realip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest resolves the client IP. Trust order, first match wins:
// the first comma-separated token of X-Forwarded-For, then X-Real-IP,
// then the host part of the transport peer address.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
