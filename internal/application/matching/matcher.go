// Package matching finds reusable commands for a new query among stored,
// successful records: by token-set similarity or by placeholder templates.
//
// Both matchers perform full scans in ascending id order. Records that vanish
// or fail to load mid-scan are skipped, and only records with status=success
// and a stored command are ever candidates.
package matching

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Matcher runs similarity and template lookups against a store.
type Matcher struct {
	Store  ports.QueryStore
	Logger ports.Logger
}

// New returns a Matcher over store.
func New(store ports.QueryStore, log ports.Logger) *Matcher {
	return &Matcher{Store: store, Logger: log}
}

// scan yields every readable record in store iteration order.
func (m *Matcher) scan(ctx context.Context, fn func(domain.QueryRecord)) error {
	ids, err := m.Store.IDs(ctx)
	if err != nil {
		return errors.Wrap(err, "list records")
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, ok, err := m.Store.Get(ctx, id)
		if err != nil {
			m.debug("skipping unreadable record", map[string]interface{}{"id": id, "error": err.Error()})
			continue
		}
		if !ok {
			continue
		}
		fn(rec)
	}
	return nil
}

func (m *Matcher) debug(msg string, fields map[string]interface{}) {
	if m.Logger != nil {
		m.Logger.Debug(msg, fields)
	}
}
