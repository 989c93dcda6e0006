package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/woudc-registry/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so stored
// reports record who submitted them. RemoteAddr has already been rewritten
// by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
