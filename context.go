package routeguard

import "context"

type contextKey int

const (
	ctxKeyPrincipal contextKey = iota
	ctxKeyRequestIP
)

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// WithRequestIP records the client address of the request being checked.
func WithRequestIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestIP, ip)
}

// RequestIPFromContext returns the address stored by WithRequestIP.
func RequestIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyRequestIP).(string)
	return ip
}
