package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/store"
	"github.com/doeshing/qa/internal/pkg/logger"
	"github.com/doeshing/qa/internal/ports"
)

type stubGenerator struct {
	command string
	err     error
	calls   []ports.GenerateRequest
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, req ports.GenerateRequest) (string, error) {
	g.calls = append(g.calls, req)
	return g.command, g.err
}

type stubRules struct {
	set domain.RuleSet
	err error
}

func (r stubRules) All(context.Context) (domain.RuleSet, error) { return r.set, r.err }

type stubScanSpec map[string]string

func (s stubScanSpec) Match(_ context.Context, query string) (string, bool) {
	cmd, ok := s[query]
	return cmd, ok
}

type stubExecutor struct {
	exitCode int
	output   string
	ran      []string
}

func (e *stubExecutor) Execute(_ context.Context, command string) (domain.ExecutionResult, error) {
	e.ran = append(e.ran, command)
	return domain.ExecutionResult{Ran: true, ExitCode: e.exitCode, Output: e.output}, nil
}

func newService(t *testing.T, seeds ...domain.QueryRecord) (*Service, *store.FileStore) {
	t.Helper()
	clock := time.Unix(1_700_000_000, 0)
	s := store.NewFileStore(filepath.Join(t.TempDir(), "queries"), store.WithClock(func() time.Time { return clock }))
	for _, rec := range seeds {
		if err := s.Put(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	log := logger.NewStd(false)
	return &Service{
		Store:     s,
		Matcher:   matching.New(s, log),
		Executor:  &stubExecutor{},
		Logger:    log,
		Threshold: 70,
	}, s
}

func success(id int64, query, command string) domain.QueryRecord {
	return domain.QueryRecord{
		ID:      id,
		Query:   query,
		Command: command,
		Result:  &domain.Result{},
		Meta:    domain.Meta{{Key: domain.MetaStatus, Value: string(domain.StatusSuccess)}},
	}
}

func TestResolveTemplateReuse(t *testing.T) {
	svc, s := newService(t, success(100, "find all {{ext}} files", "find . -name '*.{{ext}}'"))
	gen := &stubGenerator{command: "never"}
	svc.Generator = gen
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "find all py files")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != domain.SourceTemplate || res.Command != "find . -name '*.py'" || res.PrevID != 100 {
		t.Fatalf("resolution = %+v", res)
	}
	if !res.Cached() || len(gen.calls) != 0 {
		t.Fatal("generator consulted despite template match")
	}

	rec, ok, _ := s.Get(ctx, res.ID)
	if !ok || rec.Command != "find . -name '*.py'" || !rec.Cached() {
		t.Fatalf("record = %+v", rec)
	}
	if prev, _ := rec.Meta.Get(domain.MetaPrev); prev != "100" {
		t.Fatalf("prev = %q", prev)
	}
	if rec.Status() != domain.StatusPending {
		t.Fatalf("status = %s before execution", rec.Status())
	}
}

func TestResolveSimilarReuse(t *testing.T) {
	svc, s := newService(t, success(100, "find all js files in src", "find src -name '*.js'"))
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "find all js files in src please")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != domain.SourceSimilar || res.Command != "find src -name '*.js'" || res.Score != 86 {
		t.Fatalf("resolution = %+v", res)
	}
	if score, _ := s.GetMeta(ctx, res.ID, domain.MetaScore); score != "86" {
		t.Fatalf("score meta = %q", score)
	}
}

func TestResolveGenerates(t *testing.T) {
	svc, s := newService(t, success(100, "kill port 8080", "fuser -k 8080/tcp"))
	gen := &stubGenerator{command: "  du -sh .\n"}
	svc.Generator = gen
	svc.Rules = stubRules{set: domain.RuleSet{Global: []domain.Rule{{Line: 1, Text: "portable"}}}}
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "show disk usage")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != domain.SourceGenerated || res.Command != "du -sh ." || res.Cached() {
		t.Fatalf("resolution = %+v", res)
	}
	if len(gen.calls) != 1 || gen.calls[0].Query != "show disk usage" || len(gen.calls[0].Rules.Global) != 1 {
		t.Fatalf("generator calls = %+v", gen.calls)
	}
	rec, _, _ := s.Get(ctx, res.ID)
	if rec.Command != "du -sh ." || rec.Cached() {
		t.Fatalf("record = %+v", rec)
	}
}

func TestResolveRulesErrorStillGenerates(t *testing.T) {
	svc, _ := newService(t)
	svc.Generator = &stubGenerator{command: "ls"}
	svc.Rules = stubRules{err: errors.New("permission denied")}
	if _, err := svc.Resolve(context.Background(), "list"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestResolveNoGenerator(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	res, err := svc.Resolve(ctx, "something new")
	if !errors.Is(err, domain.ErrNoGenerator) {
		t.Fatalf("err = %v, want ErrNoGenerator", err)
	}
	rec, ok, _ := s.Get(ctx, res.ID)
	if !ok || rec.Status() != domain.StatusPending {
		t.Fatalf("pending record not kept: %+v", rec)
	}
}

func TestResolveGeneratorFailureMarksFail(t *testing.T) {
	svc, s := newService(t)
	svc.Generator = &stubGenerator{err: errors.New("rate limited")}
	ctx := context.Background()
	res, err := svc.Resolve(ctx, "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	rec, _, _ := s.Get(ctx, res.ID)
	if rec.Status() != domain.StatusFail {
		t.Fatalf("status = %s", rec.Status())
	}
}

func TestResolveScanSpecWins(t *testing.T) {
	svc, _ := newService(t, success(100, "list python files", "ls *.py"))
	svc.ScanSpec = stubScanSpec{"list python files": "git ls-files '*.py'"}
	res, err := svc.Resolve(context.Background(), "list python files")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != domain.SourceScanSpec || res.Command != "git ls-files '*.py'" {
		t.Fatalf("resolution = %+v", res)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Resolve(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunSettlesStatus(t *testing.T) {
	svc, s := newService(t)
	exec := &stubExecutor{exitCode: 1, output: "nope\n"}
	svc.Executor = exec
	svc.Generator = &stubGenerator{command: "false"}
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "fail please")
	if err != nil {
		t.Fatal(err)
	}
	out, err := svc.Run(ctx, res.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ExitCode != 1 || exec.ran[0] != "false" {
		t.Fatalf("run = %+v, ran %v", out, exec.ran)
	}
	rec, _, _ := s.Get(ctx, res.ID)
	if rec.Status() != domain.StatusFail || rec.Result == nil || rec.Result.Output != "nope\n" {
		t.Fatalf("record = %+v", rec)
	}

	if _, err := svc.Run(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing id err = %v", err)
	}
}
