package store

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Legacy per-field layout: <id>.query, <id>.command, <id>.result, <id>.meta.
const (
	legacyQuery   = ".query"
	legacyCommand = ".command"
	legacyResult  = ".result"
	legacyMeta    = ".meta"
)

var legacyTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ImportReport summarizes a legacy import.
type ImportReport struct {
	Imported int
	Skipped  []string
}

// ImportLegacy reads records kept in the per-field file layout under dir and
// writes each into dst. A record is importable when its .query file exists;
// missing command, result or meta fields import as absent.
func ImportLegacy(ctx context.Context, dir string, dst ports.QueryStore) (ImportReport, error) {
	var report ImportReport
	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, errors.Wrapf(err, "read legacy dir %s", dir)
	}
	ids := map[int64]struct{}{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		switch ext {
		case legacyQuery, legacyCommand, legacyResult, legacyMeta:
		default:
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ext), 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}

	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, id := range sorted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec, ok, err := readLegacy(dir, id)
		if err != nil || !ok {
			report.Skipped = append(report.Skipped, strconv.FormatInt(id, 10))
			continue
		}
		if err := dst.Put(ctx, rec); err != nil {
			return report, errors.Wrapf(err, "import record %d", id)
		}
		report.Imported++
	}
	return report, nil
}

func readLegacy(dir string, id int64) (domain.QueryRecord, bool, error) {
	base := filepath.Join(dir, strconv.FormatInt(id, 10))
	query, err := os.ReadFile(base + legacyQuery)
	if err != nil {
		return domain.QueryRecord{}, false, nil
	}
	rec := domain.QueryRecord{ID: id, Query: strings.TrimRight(string(query), "\n")}

	if command, err := os.ReadFile(base + legacyCommand); err == nil {
		rec.Command = strings.TrimRight(string(command), "\n")
	}
	if raw, err := os.ReadFile(base + legacyResult); err == nil {
		res, err := ParseLegacyResult(string(raw))
		if err != nil {
			return domain.QueryRecord{}, false, err
		}
		if res.Time.IsZero() {
			if info, err := os.Stat(base + legacyResult); err == nil {
				res.Time = info.ModTime().UTC().Truncate(time.Second)
			}
		}
		rec.Result = &res
	}
	if raw, err := os.ReadFile(base + legacyMeta); err == nil {
		rec.Meta = ParseLegacyMeta(string(raw))
	}
	if _, ok := rec.Meta.Get(domain.MetaStatus); !ok {
		rec.Meta = rec.Meta.Set(domain.MetaPair{Key: domain.MetaStatus, Value: string(domain.StatusPending)})
	}
	return rec, true, nil
}

// ParseLegacyResult parses "exit=<int>", "time=<timestamp>", a separator line
// and then the captured output.
func ParseLegacyResult(raw string) (domain.Result, error) {
	var res domain.Result
	sawExit := false
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var output []string
	inOutput := false
	for scanner.Scan() {
		line := scanner.Text()
		if inOutput {
			output = append(output, line)
			continue
		}
		switch {
		case strings.HasPrefix(line, "exit="):
			code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "exit=")))
			if err != nil {
				return domain.Result{}, errors.Wrapf(domain.ErrInvalidArgument, "exit code %q", line)
			}
			res.ExitCode = code
			sawExit = true
		case strings.HasPrefix(line, "time="):
			res.Time = parseLegacyTime(strings.TrimSpace(strings.TrimPrefix(line, "time=")))
		case strings.TrimSpace(line) == "" || strings.HasPrefix(line, "---"):
			inOutput = true
		default:
			inOutput = true
			output = append(output, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Result{}, errors.Wrap(err, "scan result")
	}
	if !sawExit {
		return domain.Result{}, errors.Wrap(domain.ErrInvalidArgument, "result without exit code")
	}
	if len(output) > 0 {
		res.Output = strings.Join(output, "\n") + "\n"
	}
	return res, nil
}

// ParseLegacyMeta parses newline-delimited key=value pairs, skipping junk lines.
func ParseLegacyMeta(raw string) domain.Meta {
	var meta domain.Meta
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pair, err := domain.ParseMetaPair(line)
		if err != nil {
			continue
		}
		meta = append(meta, pair)
	}
	return meta
}

func parseLegacyTime(v string) time.Time {
	for _, layout := range legacyTimeFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
