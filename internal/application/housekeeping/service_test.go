package housekeeping

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/store"
	"github.com/doeshing/qa/internal/pkg/logger"
)

const day = int64(24 * 60 * 60)

var now = time.Unix(100*day, 0)

func newService(t *testing.T, recs ...domain.QueryRecord) (*Service, *store.FileStore) {
	t.Helper()
	s := store.NewFileStore(filepath.Join(t.TempDir(), "queries"))
	for _, rec := range recs {
		if err := s.Put(context.Background(), rec); err != nil {
			t.Fatalf("seed %d: %v", rec.ID, err)
		}
	}
	log := logger.NewStd(false)
	svc := New(s, matching.New(s, log), log)
	svc.Now = func() time.Time { return now }
	return svc, s
}

func record(id int64, query string, status domain.Status, extra ...domain.MetaPair) domain.QueryRecord {
	meta := domain.Meta{{Key: domain.MetaStatus, Value: string(status)}}
	return domain.QueryRecord{ID: id, Query: query, Command: "true", Meta: meta.Append(extra...)}
}

func ids(listings []domain.Listing) []int64 {
	var out []int64
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestStatsEmptyStore(t *testing.T) {
	svc, _ := newService(t)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats != (domain.Stats{}) || stats.HitRate() != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStats(t *testing.T) {
	cached := domain.MetaPair{Key: domain.MetaCached, Value: "true"}
	svc, _ := newService(t,
		record(1, "a", domain.StatusSuccess),
		record(2, "b", domain.StatusSuccess, cached),
		record(3, "c", domain.StatusFail),
		record(4, "d", domain.StatusPending, cached),
	)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Stats{Total: 4, Success: 2, Fail: 1, Pending: 1, Cached: 2}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if stats.HitRate() != 50 {
		t.Fatalf("hit rate = %v", stats.HitRate())
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newService(t,
		record(1, "list Python files", domain.StatusSuccess),
		record(2, "count python lines", domain.StatusFail),
		record(3, "python version", domain.StatusPending),
	)
	ctx := context.Background()

	got, err := svc.Search(ctx, "python", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(got), []int64{3, 2}) {
		t.Fatalf("Search = %v", ids(got))
	}
	got, _ = svc.Search(ctx, "python", 1)
	if !reflect.DeepEqual(ids(got), []int64{3}) {
		t.Fatalf("limited Search = %v", ids(got))
	}
	if _, err := svc.Search(ctx, "", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty search err = %v", err)
	}
}

func TestCleanRemovesOnlyOldTerminal(t *testing.T) {
	old := 10 * day
	recent := 95 * day
	svc, s := newService(t,
		record(old, "old success", domain.StatusSuccess),
		record(old+1, "old fail", domain.StatusFail),
		record(old+2, "old pending", domain.StatusPending),
		record(recent, "recent success", domain.StatusSuccess),
	)
	ctx := context.Background()

	report, err := svc.Clean(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.Removed, []int64{old, old + 1}) {
		t.Fatalf("removed = %v", report.Removed)
	}
	for _, id := range []int64{old + 2, recent} {
		if !s.Exists(ctx, id) {
			t.Fatalf("record %d should survive", id)
		}
	}
	if s.Exists(ctx, old) {
		t.Fatal("old record survived")
	}
}

func TestCleanProtectsPrevTargets(t *testing.T) {
	tmpl := 10 * day
	svc, s := newService(t,
		record(tmpl, "find all {{ext}} files", domain.StatusSuccess),
		record(tmpl+1, "find all py files", domain.StatusSuccess, domain.MetaPair{Key: domain.MetaPrev, Value: "864000"}),
		record(95*day, "find all go files", domain.StatusSuccess,
			domain.MetaPair{Key: domain.MetaCached, Value: "true"},
			domain.MetaPair{Key: domain.MetaPrev, Value: "864000"}),
	)
	ctx := context.Background()

	report, err := svc.Clean(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.Protected, []int64{tmpl}) || !reflect.DeepEqual(report.Removed, []int64{tmpl + 1}) {
		t.Fatalf("report = %+v", report)
	}
	if !s.Exists(ctx, tmpl) {
		t.Fatal("template referenced by a surviving record was removed")
	}
}

func TestCleanZeroDaysAndInvalid(t *testing.T) {
	svc, _ := newService(t, record(99*day, "yesterday", domain.StatusSuccess))
	ctx := context.Background()

	if _, err := svc.Clean(ctx, -1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	report, err := svc.Clean(ctx, 0)
	if err != nil || len(report.Removed) != 1 {
		t.Fatalf("Clean(0) = %+v, %v", report, err)
	}
}

func TestPlanDoesNotDelete(t *testing.T) {
	svc, s := newService(t, record(day, "ancient", domain.StatusFail))
	ctx := context.Background()
	report, err := svc.Plan(ctx, 30)
	if err != nil || len(report.Removed) != 1 {
		t.Fatalf("Plan = %+v, %v", report, err)
	}
	if !s.Exists(ctx, day) {
		t.Fatal("Plan deleted a record")
	}
}

func TestRankSimilarDelegates(t *testing.T) {
	svc, _ := newService(t, record(1, "list python files", domain.StatusSuccess))
	got, err := svc.RankSimilar(context.Background(), "list python files", 30)
	if err != nil || len(got) != 1 || got[0].Score != 100 {
		t.Fatalf("RankSimilar = %+v, %v", got, err)
	}
}
