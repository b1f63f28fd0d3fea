package domain

// MatchSource names the path that produced a command for a query.
type MatchSource string

const (
	SourceScanSpec  MatchSource = "scanspec"
	SourceTemplate  MatchSource = "template"
	SourceSimilar   MatchSource = "similar"
	SourceGenerated MatchSource = "generated"
)

// Resolution is the outcome of pushing a new query through the cache.
type Resolution struct {
	ID       int64
	Command  string
	Source   MatchSource
	PrevID   int64
	Score    int
	Bindings map[string]string
}

// Cached reports whether the command was reused rather than generated.
func (r Resolution) Cached() bool {
	return r.Source == SourceTemplate || r.Source == SourceSimilar
}

// ExecutionResult wraps details from the command executor.
type ExecutionResult struct {
	Ran        bool
	Output     string
	ExitCode   int
	DurationMS int64
}
