// Package app provides the application context and dependency management
// for the conflictmap CLI. It centralizes configuration, logging, and the
// construction of analyzers and reasoners so commands stay testable.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/conflictmap"
	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// App represents the conflictmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config

	mu     sync.RWMutex
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration from files and the environment
// that can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "loading configuration", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Analyzer builds a new analyzer that logs through the application logger.
func (a *App) Analyzer(opts ...conflictmap.Option) (*conflictmap.Analyzer, error) {
	base := []conflictmap.Option{conflictmap.WithLogger(a.Logger())}
	return conflictmap.New(append(base, opts...)...)
}

// Reasoner builds the validation backend. Empty fields of opts fall back to
// the configured provider, model and base URL. The "none" provider yields a
// nil reasoner and no error.
func (a *App) Reasoner(ctx context.Context, opts llm.Options) (validation.Reasoner, error) {
	if opts.Provider == "" {
		opts.Provider = a.config.Provider
	}
	if opts.Provider == "" {
		opts.Provider = constants.DefaultProvider
	}
	if llm.ProviderID(opts.Provider) == llm.ProviderNone {
		return nil, nil
	}
	if opts.Model == "" {
		opts.Model = a.config.Model
	}
	if opts.BaseURL == "" {
		opts.BaseURL = a.config.BaseURL
	}
	return llm.New(ctx, opts)
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.Logger().Debug().Msg("Shutting down")
	return nil
}

func (a *App) setLogger(logger zerolog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = &logger
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)
