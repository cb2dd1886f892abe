package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultRequestTimeout bounds one question end to end
	DefaultRequestTimeout = 120 * time.Second
	// DefaultClassificationTimeout bounds the AI classification call
	DefaultClassificationTimeout = 10 * time.Second
	// DefaultCommandTimeout bounds a single kubectl invocation
	DefaultCommandTimeout = 30 * time.Second
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
	// DefaultModelTestTimeout bounds the models test round trip
	DefaultModelTestTimeout = 20 * time.Second
)

// Limit constants
const (
	// DefaultMaxParallelCommands is how many verified commands run concurrently
	DefaultMaxParallelCommands = 2
	// DefaultMaxFollowUpCommands caps the follow-up round
	DefaultMaxFollowUpCommands = 2
	// MaxSuggestedCommands caps what the advisor may propose in one round
	MaxSuggestedCommands = 5
	// DefaultHistoryWindow is how many stored messages feed the classifier and advisor
	DefaultHistoryWindow = 10
)

// History constants
const (
	// DefaultHistoryLimit is the default number of messages to display
	DefaultHistoryLimit = 20
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// Model configuration constants
const (
	// DefaultMaxTokens is the default maximum number of tokens
	DefaultMaxTokens = 1024
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
