// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core (matching, replay, housekeeping, the query pipeline)
// depends only on these abstractions. Infrastructure adapters such as the
// file and SQLite stores, the rule resolver, the shell executor and the
// external generator implement them.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., QueryStore, Generator)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/qa/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.qa/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// QueryStore persists query records keyed by their creation-second id.
//
// Reads of a missing id report absence through the boolean result and never
// fail; scans skip records that vanish or cannot be decoded mid-iteration.
type QueryStore interface {
	Create(ctx context.Context, query string) (int64, error)
	SetCommand(ctx context.Context, id int64, command string) error
	SetResult(ctx context.Context, id int64, exitCode int, output string) error
	SetMeta(ctx context.Context, id int64, pairs ...domain.MetaPair) error
	AppendMeta(ctx context.Context, id int64, pairs ...domain.MetaPair) error

	Get(ctx context.Context, id int64) (domain.QueryRecord, bool, error)
	Exists(ctx context.Context, id int64) bool
	GetMeta(ctx context.Context, id int64, key string) (string, bool)

	// IDs returns every stored id in ascending order.
	IDs(ctx context.Context) ([]int64, error)
	List(ctx context.Context, limit int) ([]domain.Listing, error)
	DeleteAll(ctx context.Context, id int64) error

	// Put writes a complete record, replacing any existing one. Used by import.
	Put(ctx context.Context, rec domain.QueryRecord) error
	Location() string
}

// RuleSource resolves the merged global + project rule set.
type RuleSource interface {
	All(context.Context) (domain.RuleSet, error)
}

// CommandExecutor runs shell commands in the configured shell environment.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (domain.ExecutionResult, error)
}

// Generator is the opaque external command generator (an LLM backend).
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest carries the query and the rule text injected as instructions.
type GenerateRequest struct {
	Query string
	Rules domain.RuleSet
}

// ScanSpecMatcher is a higher-priority deterministic matcher. When it claims a
// query the fuzzy matchers are not consulted.
type ScanSpecMatcher interface {
	Match(ctx context.Context, query string) (command string, ok bool)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
