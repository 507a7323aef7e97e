// Package application provides the application interface for conflictmap commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            analyzer, err := app.Analyzer(conflictmap.WithThreshold(80))
//	            if err != nil {
//	                return err
//	            }
//	            // ... run the analysis
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    ReasonerFunc: func(context.Context, llm.Options) (validation.Reasoner, error) {
//	        return fakeReasoner, nil
//	    },
//	}
//	cmd := analyze.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/conflictmap"
	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/internal/validation"
)

// Application provides the application interface that commands need.
// The App struct from cmd/conflictmap/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Analyzer builds a new analyzer. The application's logger is applied
	// first, so opts may override it.
	Analyzer(opts ...conflictmap.Option) (*conflictmap.Analyzer, error)

	// Reasoner builds the validation backend described by opts.
	Reasoner(ctx context.Context, opts llm.Options) (validation.Reasoner, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
