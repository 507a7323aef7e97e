package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/conflictmap"
	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/internal/validation"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    OutputFormatFunc: func() string { return "json" },
//	}
//	cmd := score.NewCommand(mock)
//	// ... test command
type Mock struct {
	AnalyzerFunc     func(opts ...conflictmap.Option) (*conflictmap.Analyzer, error)
	ReasonerFunc     func(ctx context.Context, opts llm.Options) (validation.Reasoner, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Analyzer returns an analyzer using the mock function, or a real analyzer
// with a no-op logger.
func (m *Mock) Analyzer(opts ...conflictmap.Option) (*conflictmap.Analyzer, error) {
	if m.AnalyzerFunc != nil {
		return m.AnalyzerFunc(opts...)
	}
	return conflictmap.New(append([]conflictmap.Option{conflictmap.WithLogger(m.Logger())}, opts...)...)
}

// Reasoner returns a reasoner using the mock function or llm.New.
func (m *Mock) Reasoner(ctx context.Context, opts llm.Options) (validation.Reasoner, error) {
	if m.ReasonerFunc != nil {
		return m.ReasonerFunc(ctx, opts)
	}
	return llm.New(ctx, opts)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
