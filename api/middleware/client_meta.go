package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type clientMetaKey struct{}

// ClientMeta carries the request origin details persisted on cart creation.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// ClientMetadata extracts the caller's IP and user agent once per request
// and stashes them on the context for the controllers.
func ClientMetadata() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := ClientMeta{
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			}
			ctx := context.WithValue(r.Context(), clientMetaKey{}, meta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientMetaFromContext returns the stored client metadata, zero when the
// middleware did not run.
func ClientMetaFromContext(ctx context.Context) ClientMeta {
	if meta, ok := ctx.Value(clientMetaKey{}).(ClientMeta); ok {
		return meta
	}
	return ClientMeta{}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// first hop is the originating client
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
