// Package store implements the query record store on the local filesystem
// (one JSON document per record) and on SQLite.
package store

import (
	"strings"
	"time"

	"github.com/doeshing/qa/internal/domain"
)

// Option customizes a store.
type Option func(*options)

type options struct {
	now         func() time.Time
	outputLines int
}

func defaultOptions() options {
	return options{
		now:         time.Now,
		outputLines: domain.DefaultOutputLines,
	}
}

// WithClock overrides the clock used to mint ids and stamp results.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOutputLines bounds how many leading output lines a result keeps.
func WithOutputLines(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.outputLines = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TruncateOutput keeps the first n lines of output.
func TruncateOutput(output string, n int) string {
	if n <= 0 || output == "" {
		return output
	}
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(output[idx:], '\n')
		if next < 0 {
			return output
		}
		idx += next + 1
	}
	return output[:idx]
}

func newResult(now time.Time, exitCode int, output string, lines int) *domain.Result {
	return &domain.Result{
		ExitCode: exitCode,
		Time:     now.UTC().Truncate(time.Second),
		Output:   TruncateOutput(output, lines),
	}
}

func pendingMeta() domain.Meta {
	return domain.Meta{{Key: domain.MetaStatus, Value: string(domain.StatusPending)}}
}
