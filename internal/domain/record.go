// Package domain defines core entities and value objects for qa.
//
// This file contains the query record, the unit of persistence for the
// deduplication cache. A record aggregates the natural-language query, the
// command generated for it, the latest execution result and an ordered
// metadata list that carries status and chain pointers.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Status is the lifecycle state of a query record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFail
}

// ParseStatus accepts only the three known status values.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusPending, StatusSuccess, StatusFail:
		return s, nil
	}
	return "", errors.Wrapf(ErrInvalidArgument, "unknown status %q", raw)
}

// CheckTransition rejects moving a terminal record back to pending.
func CheckTransition(from, to Status) error {
	if from.Terminal() && !to.Terminal() {
		return errors.Wrapf(ErrInvalidArgument, "status %s cannot revert to %s", from, to)
	}
	return nil
}

// Glyph returns the one-character marker used in listings.
func (s Status) Glyph() string {
	switch s {
	case StatusSuccess:
		return "✓"
	case StatusFail:
		return "✗"
	default:
		return "…"
	}
}

// Well-known meta keys.
const (
	MetaStatus   = "status"
	MetaCached   = "cached"
	MetaPrev     = "prev"
	MetaTemplate = "template"
	MetaScore    = "score"
	MetaReplay   = "replay"
)

// PlaceholderPattern matches a {{identifier}} template variable.
var PlaceholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// MetaPair is a single key=value metadata entry.
type MetaPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// String renders the pair in its key=value form.
func (p MetaPair) String() string {
	return p.Key + "=" + p.Value
}

// ParseMetaPair parses "key=value". The key must be non-empty; the value may be.
func ParseMetaPair(raw string) (MetaPair, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return MetaPair{}, errors.Wrapf(ErrInvalidArgument, "meta pair %q must be key=value", raw)
	}
	return MetaPair{Key: key, Value: value}, nil
}

// Meta is an ordered, open-ended key/value list. Keys may repeat when
// appended; lookups return the last occurrence.
type Meta []MetaPair

// Get returns the most recent value recorded for key.
func (m Meta) Get(key string) (string, bool) {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i].Key == key {
			return m[i].Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for key, oldest first.
func (m Meta) Values(key string) []string {
	var out []string
	for _, p := range m {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Set replaces the value of each existing key in place or appends it when absent.
func (m Meta) Set(pairs ...MetaPair) Meta {
	out := append(Meta(nil), m...)
	for _, p := range pairs {
		replaced := false
		for i := range out {
			if out[i].Key == p.Key {
				out[i].Value = p.Value
				replaced = true
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

// Append adds the pairs unconditionally.
func (m Meta) Append(pairs ...MetaPair) Meta {
	out := append(Meta(nil), m...)
	return append(out, pairs...)
}

// Remove drops every occurrence of key.
func (m Meta) Remove(key string) Meta {
	out := make(Meta, 0, len(m))
	for _, p := range m {
		if p.Key != key {
			out = append(out, p)
		}
	}
	return out
}

// Result captures the outcome of executing a record's command.
type Result struct {
	ExitCode int       `json:"exit"`
	Time     time.Time `json:"time"`
	Output   string    `json:"output"`
}

// QueryRecord is the central cache entity. ID is Unix seconds at creation and
// doubles as the creation timestamp.
type QueryRecord struct {
	ID      int64   `json:"id"`
	Query   string  `json:"query"`
	Command string  `json:"command,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Meta    Meta    `json:"meta"`
}

// Status returns the record status, defaulting to pending.
func (r QueryRecord) Status() Status {
	if v, ok := r.Meta.Get(MetaStatus); ok {
		switch Status(v) {
		case StatusSuccess, StatusFail:
			return Status(v)
		}
	}
	return StatusPending
}

// CreatedAt converts the id back into a timestamp.
func (r QueryRecord) CreatedAt() time.Time {
	return time.Unix(r.ID, 0)
}

// Cached reports whether this invocation was served from a match.
func (r QueryRecord) Cached() bool {
	v, ok := r.Meta.Get(MetaCached)
	return ok && v == "true"
}

// IsTemplate reports whether the query carries {{name}} placeholders.
func (r QueryRecord) IsTemplate() bool {
	return PlaceholderPattern.MatchString(r.Query)
}

// Reusable reports whether the record may be offered as a match candidate.
// A command without a success status is still in flight.
func (r QueryRecord) Reusable() bool {
	return r.Status() == StatusSuccess && r.Command != ""
}

// Listing is a compact, display-oriented view of a record.
type Listing struct {
	ID      int64
	Glyph   string
	Status  Status
	Preview string
}

// PreviewLimit bounds the query preview in listings.
const PreviewLimit = 60

// Preview truncates text to limit runes, marking the cut with "...".
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 3 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

// NewListing builds the listing view of a record.
func NewListing(r QueryRecord) Listing {
	status := r.Status()
	return Listing{
		ID:      r.ID,
		Glyph:   status.Glyph(),
		Status:  status,
		Preview: Preview(r.Query, PreviewLimit),
	}
}
