// Package constants provides shared constants used throughout the conflictmap codebase.
// This includes matching defaults, validation limits, file permissions, and other
// values that should be consistent across the library and the CLI.
package constants

import "time"

// Matching constants define the default similarity configuration
const (
	// DefaultThreshold is the minimum weighted composite (0-100) a pair needs to be retained
	DefaultThreshold = 85.0

	// DefaultFullRatioWeight weights the whole-string Indel ratio
	DefaultFullRatioWeight = 0.4

	// DefaultSubstringWeight weights the best partial (substring) ratio
	DefaultSubstringWeight = 0.3

	// DefaultTokenSortWeight weights the sorted-token ratio
	DefaultTokenSortWeight = 0.2

	// DefaultTokenSetWeight weights the token-set ratio
	DefaultTokenSetWeight = 0.1

	// DefaultEmployerBonusMax is the largest bonus an employer match can add
	DefaultEmployerBonusMax = 10.0

	// DefaultEmployerThreshold is the employer similarity needed before any bonus applies
	DefaultEmployerThreshold = 80.0

	// WeightSumTolerance is the allowed floating point drift when checking weights sum to 1
	WeightSumTolerance = 1e-6

	// MaxScore is the upper bound of every similarity score
	MaxScore = 100.0
)

// Validation constants define the defaults of the AI validation stage
const (
	// DefaultAIBatchSize is the number of records judged per batch
	DefaultAIBatchSize = 10

	// DefaultAIConcurrency is the number of reasoning calls in flight within a batch
	DefaultAIConcurrency = 4

	// DefaultAIRetryLimit is the number of retries after the first failed attempt
	DefaultAIRetryLimit = 3

	// DefaultAITimeout is the hard timeout of a single reasoning call
	DefaultAITimeout = 30 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second

	// SchemaVersion tags the reasoning request/response contract
	SchemaVersion = "v1"

	// MaxResponseTokens bounds the size of a reasoning response
	MaxResponseTokens = 1000
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like the verdict cache (rw-------)
	SecureFilePermissions = 0600
)

// Default values
const (
	// DefaultProvider is the reasoning provider when none is specified
	DefaultProvider = "anthropic"

	// DefaultAnthropicModel is the Claude model used for validation
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

	// DefaultOpenAIModel is the OpenAI model used for validation
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultOllamaModel is the local model used for validation
	DefaultOllamaModel = "llama3.1"

	// DefaultGeminiModel is the Gemini model used for validation
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultPolitician labels a run when the input carries no politician name
	DefaultPolitician = "unknown"
)

// Path constants
const (
	// DefaultOutputDir is where reports are written
	DefaultOutputDir = "output"

	// DefaultConfigFile is the pipeline configuration file looked up in the working directory
	DefaultConfigFile = ".conflictmap.yaml"

	// DefaultLogFile is the log file written next to the reports when file logging is enabled
	DefaultLogFile = "conflict_analysis.log"
)

// Format constants
const (
	// DateFormat is the format used for dates in reports
	DateFormat = "2006-01-02"

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
