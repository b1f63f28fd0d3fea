// Package housekeeping provides the read-side views over the query store
// (list, search, rank, stats) and its only deletion path, age-based cleanup.
package housekeeping

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Service wires housekeeping operations to a store.
type Service struct {
	Store   ports.QueryStore
	Matcher *matching.Matcher
	Logger  ports.Logger
	Now     func() time.Time
}

// New builds a Service with the wall clock.
func New(store ports.QueryStore, matcher *matching.Matcher, log ports.Logger) *Service {
	return &Service{Store: store, Matcher: matcher, Logger: log, Now: time.Now}
}

// CleanReport summarizes a cleanup pass.
type CleanReport struct {
	Removed   []int64
	Protected []int64
}

// List returns up to limit records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Listing, error) {
	return s.Store.List(ctx, limit)
}

// RankSimilar delegates to the similarity matcher.
func (s *Service) RankSimilar(ctx context.Context, query string, minScore int) ([]matching.Ranked, error) {
	if s.Matcher == nil {
		return nil, errors.New("housekeeping.Service has no matcher")
	}
	return s.Matcher.RankSimilar(ctx, query, minScore)
}

// Search returns records whose query contains substring literally
// (case-sensitive), newest first. limit <= 0 returns every hit.
func (s *Service) Search(ctx context.Context, substring string, limit int) ([]domain.Listing, error) {
	if substring == "" {
		return nil, errors.Wrap(domain.ErrInvalidArgument, "search text is empty")
	}
	recs, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Listing
	for i := len(recs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(recs[i].Query, substring) {
			out = append(out, domain.NewListing(recs[i]))
		}
	}
	return out, nil
}

// Stats counts records by status and cache flag.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	recs, err := s.records(ctx)
	if err != nil {
		return stats, err
	}
	for _, rec := range recs {
		stats.Add(rec)
	}
	return stats, nil
}

// Plan lists what Clean would do without deleting anything.
func (s *Service) Plan(ctx context.Context, days int) (CleanReport, error) {
	if days < 0 {
		return CleanReport{}, errors.Wrapf(domain.ErrInvalidArgument, "days must be >= 0, got %d", days)
	}
	recs, err := s.records(ctx)
	if err != nil {
		return CleanReport{}, err
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()

	expired := map[int64]bool{}
	for _, rec := range recs {
		if rec.Status().Terminal() && rec.ID < cutoff {
			expired[rec.ID] = true
		}
	}

	// A record pointed at by a surviving record's prev= stays, so the latest
	// reuse of a template family keeps its origin.
	protected := map[int64]bool{}
	for _, rec := range recs {
		if expired[rec.ID] {
			continue
		}
		for _, v := range rec.Meta.Values(domain.MetaPrev) {
			if prev, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && expired[prev] {
				protected[prev] = true
			}
		}
	}

	var report CleanReport
	for _, rec := range recs {
		switch {
		case protected[rec.ID]:
			report.Protected = append(report.Protected, rec.ID)
		case expired[rec.ID]:
			report.Removed = append(report.Removed, rec.ID)
		}
	}
	return report, nil
}

// Clean deletes terminal records older than days and returns how many went.
// Pending records are never removed.
func (s *Service) Clean(ctx context.Context, days int) (CleanReport, error) {
	report, err := s.Plan(ctx, days)
	if err != nil {
		return CleanReport{}, err
	}
	removed := report.Removed[:0:0]
	for _, id := range report.Removed {
		if err := s.Store.DeleteAll(ctx, id); err != nil {
			s.warn("delete failed", map[string]interface{}{"id": id, "error": err.Error()})
			continue
		}
		removed = append(removed, id)
	}
	report.Removed = removed
	s.info("cleaned", map[string]interface{}{
		"removed":   len(report.Removed),
		"protected": len(report.Protected),
		"days":      days,
	})
	return report, nil
}

func (s *Service) records(ctx context.Context) ([]domain.QueryRecord, error) {
	ids, err := s.Store.IDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	out := make([]domain.QueryRecord, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok, err := s.Store.Get(ctx, id)
		if err != nil || !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) info(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields)
	}
}

func (s *Service) warn(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields)
	}
}
