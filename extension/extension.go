// Package extension provides a Forge extension entry point for routeguard.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/api"
	"github.com/xraph/routeguard/middleware"
	"github.com/xraph/routeguard/plugin"
	"github.com/xraph/routeguard/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "routeguard"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Role-based URL permission engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts routeguard as a Forge extension.
type Extension struct {
	config     Config
	eng        *routeguard.Engine
	apiHandler *api.API
	public     *middleware.PublicPaths
	logger     *slog.Logger
	engineOpts []routeguard.Option
	plugins    []plugin.Plugin
}

// New creates a routeguard Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying engine.
func (e *Extension) Engine() *routeguard.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// PublicPaths returns the compiled public allow-list.
func (e *Extension) PublicPaths() *middleware.PublicPaths { return e.public }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*routeguard.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("routeguard: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	public, err := middleware.NewPublicPaths(e.config.PublicPaths...)
	if err != nil {
		return fmt.Errorf("routeguard: %w", err)
	}
	e.public = public

	opts := make([]routeguard.Option, 0, len(e.engineOpts)+len(e.plugins)+2)
	opts = append(opts, routeguard.WithLogger(logger))

	// A store in the DI container is used unless an option overrides it.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, routeguard.WithStore(s))
	}
	opts = append(opts, e.engineOpts...)
	for _, x := range e.plugins {
		opts = append(opts, routeguard.WithPlugin(x))
	}

	eng, err := routeguard.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("routeguard: create engine: %w", err)
	}
	e.eng = eng

	e.apiHandler = api.New(eng, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("routeguard: register routes: %w", err)
		}
	}

	return nil
}

// Middleware returns a forge middleware enforcing the engine's decisions
// with the configured public paths.
func (e *Extension) Middleware(resolve middleware.PrincipalResolver) forge.Middleware {
	return middleware.Require(e.eng, resolve, middleware.WithPublicPaths(e.public))
}

// Start runs migrations if enabled and starts the engine.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("routeguard: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("routeguard: migration failed: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("routeguard: extension not initialized")
	}
	return e.eng.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all API routes into a Forge router, under
// BasePath when one is configured.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler == nil {
		return nil
	}
	if e.config.BasePath != "" && e.config.BasePath != "/" {
		router = router.Group(e.config.BasePath)
	}
	return e.apiHandler.RegisterRoutes(router)
}
