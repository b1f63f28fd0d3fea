package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// FilePermissions is the permission for record and rule files (rw-r--r--)
	FilePermissions = 0o644
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Matching defaults
const (
	// DefaultSimilarityThreshold gates FindSimilar
	DefaultSimilarityThreshold = 70
	// DefaultRankMinScore filters RankSimilar
	DefaultRankMinScore = 30
)

// Store defaults
const (
	// DefaultOutputLines is how many leading output lines a result keeps
	DefaultOutputLines = 50
	// DefaultListLimit is the default number of records to list
	DefaultListLimit = 20
	// DefaultSearchLimit is the default number of search results to return
	DefaultSearchLimit = 50
	// DefaultCleanDays is the default age cutoff for cleanup
	DefaultCleanDays = 30
	// DefaultReplayHistory is how many prior replay results meta retains
	DefaultReplayHistory = 5
)

// Rule defaults
const (
	// DefaultProjectRulesFile is checked at each ancestor of the working directory
	DefaultProjectRulesFile = ".qa/rules"
)

// Execution defaults
const (
	// DefaultCommandTimeout bounds generation and replay when the CLI applies one
	DefaultCommandTimeout = 60 * time.Second
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
