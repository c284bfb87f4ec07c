// Package middleware provides HTTP authorization middleware for routeguard,
// for forge routers and for plain net/http handlers.
//
// Both flavours share one decision procedure: public paths pass through,
// a request without a principal gets 401, a denied check gets 403, and a
// check that fails on the store also gets 403.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/routeguard"
)

// ErrNoPrincipal is returned by resolvers when the request is anonymous.
var ErrNoPrincipal = errors.New("routeguard: no principal")

// PrincipalResolver extracts the caller from a forge request.
type PrincipalResolver func(ctx forge.Context) (*routeguard.Principal, error)

// HTTPPrincipalResolver extracts the caller from a net/http request.
type HTTPPrincipalResolver func(r *http.Request) (*routeguard.Principal, error)

// PrincipalLookup loads a principal by user ID.
type PrincipalLookup func(ctx context.Context, userID string) (*routeguard.Principal, error)

// FromForgeUser resolves the principal from the user ID forge's auth layer
// stores in the request context.
func FromForgeUser(lookup PrincipalLookup) PrincipalResolver {
	return func(ctx forge.Context) (*routeguard.Principal, error) {
		userID := forge.UserIDFromContext(ctx.Context())
		if userID == "" {
			return nil, ErrNoPrincipal
		}
		return lookup(ctx.Context(), userID)
	}
}

type config struct {
	public *PublicPaths
	logger *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithPublicPaths sets the allow-list of paths that skip authorization.
func WithPublicPaths(pp *PublicPaths) Option {
	return func(c *config) { c.public = pp }
}

// WithLogger sets the logger used for resolver and store failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(eng *routeguard.Engine, opts []Option) *config {
	c := &config{logger: eng.Logger()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type paramsKey struct{}

// ParamsFromContext returns the placeholder values of the permission that
// admitted the request.
func ParamsFromContext(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsKey{}).(map[string]string)
	return params
}

// outcome is the result of authorizing one request.
type outcome int

const (
	outcomePublic outcome = iota
	outcomeAllowed
	outcomeUnauthenticated
	outcomeDenied
)

// authorize runs the shared decision procedure and returns the context the
// next handler should see.
func (c *config) authorize(
	ctx context.Context,
	eng *routeguard.Engine,
	r *http.Request,
	resolve func() (*routeguard.Principal, error),
) (context.Context, outcome) {
	if c.public.Match(r.URL.Path) {
		return ctx, outcomePublic
	}

	p, err := resolve()
	if err != nil && !errors.Is(err, ErrNoPrincipal) {
		c.logger.Warn("routeguard: principal resolution failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	if err != nil || p == nil {
		return ctx, outcomeUnauthenticated
	}

	ctx = routeguard.WithRequestIP(routeguard.WithPrincipal(ctx, p), clientIP(r))
	result, err := eng.Check(ctx, p, r.URL.Path)
	if err != nil {
		// Engine.Check already logged the store failure.
		return ctx, outcomeDenied
	}
	if !result.Allowed {
		return ctx, outcomeDenied
	}
	if len(result.Params) > 0 {
		ctx = context.WithValue(ctx, paramsKey{}, result.Params)
	}
	return ctx, outcomeAllowed
}

// Require enforces authorization on a forge route group.
func Require(eng *routeguard.Engine, resolve PrincipalResolver, opts ...Option) forge.Middleware {
	c := newConfig(eng, opts)
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			r := ctx.Request()
			reqCtx, out := c.authorize(ctx.Context(), eng, r, func() (*routeguard.Principal, error) {
				return resolve(ctx)
			})
			switch out {
			case outcomeUnauthenticated:
				return ctx.JSON(http.StatusUnauthorized, errorBody("authentication required"))
			case outcomeDenied:
				return ctx.JSON(http.StatusForbidden, errorBody("access denied"))
			}
			// forge hands handlers the same *http.Request.
			*r = *r.WithContext(reqCtx)
			return next(ctx)
		}
	}
}

// RequireHTTP enforces authorization on a net/http handler chain.
func RequireHTTP(eng *routeguard.Engine, resolve HTTPPrincipalResolver, opts ...Option) func(http.Handler) http.Handler {
	c := newConfig(eng, opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, out := c.authorize(r.Context(), eng, r, func() (*routeguard.Principal, error) {
				return resolve(r)
			})
			switch out {
			case outcomeUnauthenticated:
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			case outcomeDenied:
				writeError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
