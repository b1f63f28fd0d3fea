// Package replay re-executes stored commands with optional placeholder
// bindings, without consulting the generator.
package replay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Engine replays records in place. Concurrent replays of the same id are not
// serialized; the last result written wins.
type Engine struct {
	Store       ports.QueryStore
	Executor    ports.CommandExecutor
	Logger      ports.Logger
	HistorySize int
}

// Replay substitutes bindings into the command stored for id, runs it and
// records the fresh result on the same record. A pending record takes its
// status from the exit code; a terminal one keeps it. Unbound placeholders are
// logged and the command runs with the literal {{name}} text left in.
// A non-zero exit is returned, not treated as an error.
func (e *Engine) Replay(ctx context.Context, id int64, bindings map[string]string) (int, error) {
	if e.Store == nil || e.Executor == nil {
		return 0, errors.New("replay.Engine dependencies not satisfied")
	}
	rec, ok, err := e.Store.Get(ctx, id)
	if err != nil {
		return 0, errors.Wrapf(err, "load record %d", id)
	}
	if !ok {
		return 0, errors.Wrapf(domain.ErrNotFound, "record %d", id)
	}
	if rec.Command == "" {
		return 0, errors.Wrapf(domain.ErrNotFound, "record %d has no command", id)
	}

	command, missing := Substitute(rec.Command, bindings)
	if len(missing) > 0 {
		e.warn("replaying with unbound placeholders", map[string]interface{}{
			"id":      id,
			"missing": strings.Join(missing, ","),
		})
	}

	res, err := e.Executor.Execute(ctx, command)
	if err != nil {
		return 0, errors.Wrapf(err, "execute record %d", id)
	}
	// only a run that happened displaces the previous result
	if rec.Result != nil {
		history := PushHistory(rec.Meta, *rec.Result, e.historySize())
		if err := e.Store.SetMeta(ctx, id, domain.MetaPair{Key: domain.MetaReplay, Value: history}); err != nil {
			return res.ExitCode, errors.Wrapf(err, "record replay history for %d", id)
		}
	}
	if err := e.Store.SetResult(ctx, id, res.ExitCode, res.Output); err != nil {
		return res.ExitCode, errors.Wrapf(err, "save result for %d", id)
	}
	// terminal statuses never revert
	if !rec.Status().Terminal() {
		status := StatusFor(res.ExitCode)
		if err := e.Store.SetMeta(ctx, id, domain.MetaPair{Key: domain.MetaStatus, Value: string(status)}); err != nil {
			return res.ExitCode, errors.Wrapf(err, "set status for %d", id)
		}
	}
	e.info("replayed", map[string]interface{}{"id": id, "exit": res.ExitCode})
	return res.ExitCode, nil
}

// StatusFor maps an exit code to the terminal status it implies.
func StatusFor(exitCode int) domain.Status {
	if exitCode == 0 {
		return domain.StatusSuccess
	}
	return domain.StatusFail
}

// Substitute replaces every {{name}} that has a binding in a single pass, so
// bound values are never rescanned, and reports the unbound placeholder names,
// sorted.
func Substitute(command string, bindings map[string]string) (string, []string) {
	seen := map[string]bool{}
	var missing []string
	out := domain.PlaceholderPattern.ReplaceAllStringFunc(command, func(token string) string {
		name := domain.PlaceholderPattern.FindStringSubmatch(token)[1]
		if value, ok := bindings[name]; ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return token
	})
	sort.Strings(missing)
	return out, missing
}

// HistoryEntry is one prior result kept in the replay ring.
type HistoryEntry struct {
	ExitCode int
	Time     time.Time
}

// PushHistory appends prev to the replay ring stored in meta and returns the
// encoded ring, keeping at most size entries (oldest dropped).
func PushHistory(meta domain.Meta, prev domain.Result, size int) string {
	entries := ParseHistory(meta)
	entries = append(entries, HistoryEntry{ExitCode: prev.ExitCode, Time: prev.Time})
	if size > 0 && len(entries) > size {
		entries = entries[len(entries)-size:]
	}
	parts := make([]string, 0, len(entries))
	for _, h := range entries {
		parts = append(parts, fmt.Sprintf("%d@%s", h.ExitCode, h.Time.UTC().Format(domain.TimestampFormat)))
	}
	return strings.Join(parts, " ")
}

// ParseHistory decodes the replay ring, skipping malformed entries.
func ParseHistory(meta domain.Meta) []HistoryEntry {
	raw, ok := meta.Get(domain.MetaReplay)
	if !ok {
		return nil
	}
	var out []HistoryEntry
	for _, part := range strings.Fields(raw) {
		code, ts, ok := strings.Cut(part, "@")
		if !ok {
			continue
		}
		var exit int
		if _, err := fmt.Sscanf(code, "%d", &exit); err != nil {
			continue
		}
		t, err := time.Parse(domain.TimestampFormat, ts)
		if err != nil {
			continue
		}
		out = append(out, HistoryEntry{ExitCode: exit, Time: t})
	}
	return out
}

func (e *Engine) historySize() int {
	if e.HistorySize > 0 {
		return e.HistorySize
	}
	return domain.DefaultReplayHistory
}

func (e *Engine) warn(msg string, fields map[string]interface{}) {
	if e.Logger != nil {
		e.Logger.Warn(msg, fields)
	}
}

func (e *Engine) info(msg string, fields map[string]interface{}) {
	if e.Logger != nil {
		e.Logger.Info(msg, fields)
	}
}
