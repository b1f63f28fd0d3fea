package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

func newTestResolver(t *testing.T, workDir string) (*Resolver, string) {
	t.Helper()
	global := filepath.Join(t.TempDir(), "home", ".qa", "rules")
	return NewResolver(global, workDir, ""), global
}

func TestGlobalCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	r, global := newTestResolver(t, "")

	rules, err := r.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if len(rules) != len(r.Defaults()) || len(rules) == 0 {
		t.Fatalf("got %d rules, want %d defaults", len(rules), len(r.Defaults()))
	}
	if rules[0].Line != 1 || rules[0].Scope != domain.ScopeGlobal {
		t.Fatalf("first rule = %+v", rules[0])
	}
	if _, err := os.Stat(global); err != nil {
		t.Fatalf("global file not created: %v", err)
	}
}

func TestGlobalIgnoresBlankLines(t *testing.T) {
	ctx := context.Background()
	r, global := newTestResolver(t, "")
	if err := os.MkdirAll(filepath.Dir(global), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(global, []byte("one\n\n   \ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := r.Global(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 || rules[1].Text != "two" || rules[1].Line != 2 {
		t.Fatalf("rules = %+v", rules)
	}
}

func TestProjectDiscoveryNearestWins(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outer := filepath.Join(root, "repo")
	inner := filepath.Join(outer, "svc")
	deep := filepath.Join(inner, "pkg", "sub")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	writeRules(t, filepath.Join(outer, ".qa", "rules"), "outer rule\n")
	writeRules(t, filepath.Join(inner, ".qa", "rules"), "inner rule\nsecond inner\n")

	r, _ := newTestResolver(t, deep)
	rules, path, ok, err := r.Project(ctx)
	if err != nil || !ok {
		t.Fatalf("Project: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(inner, ".qa", "rules") {
		t.Fatalf("path = %s", path)
	}
	if len(rules) != 2 || rules[0].Text != "inner rule" || rules[0].Scope != domain.ScopeProject {
		t.Fatalf("rules = %+v", rules)
	}
}

func TestProjectAbsent(t *testing.T) {
	r, _ := newTestResolver(t, t.TempDir())
	_, _, ok, err := r.Project(context.Background())
	if err != nil || ok {
		t.Fatalf("Project: ok=%v err=%v", ok, err)
	}
}

func TestAllMergesGlobalFirst(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()
	writeRules(t, filepath.Join(work, ".qa", "rules"), "use fd when available\n")

	r, _ := newTestResolver(t, work)
	if err := r.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(ctx, "never use sudo"); err != nil {
		t.Fatal(err)
	}

	set, err := r.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	lines := set.Lines()
	if len(lines) != 2 || lines[0] != "never use sudo" || lines[1] != "use fd when available" {
		t.Fatalf("lines = %v", lines)
	}
	text := set.Format()
	if !strings.HasPrefix(text, "Global rules:\n1. never use sudo\n") {
		t.Fatalf("format = %q", text)
	}
	if !strings.Contains(text, "Project rules ("+set.ProjectPath+"):\n1. use fd when available") {
		t.Fatalf("format = %q", text)
	}
}

func TestMutations(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t, "")

	if err := r.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	rules, err := r.Global(ctx)
	if err != nil || len(rules) != 0 {
		t.Fatalf("after clear: %v, %v", rules, err)
	}

	for _, text := range []string{"a rule", "b rule", "c rule"} {
		if err := r.Add(ctx, text); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Add(ctx, "  "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Add blank err = %v", err)
	}
	if err := r.Add(ctx, "two\nlines"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Add multiline err = %v", err)
	}

	removed, err := r.Remove(ctx, 2)
	if err != nil || removed != "b rule" {
		t.Fatalf("Remove(2) = %q, %v", removed, err)
	}
	if _, err := r.Remove(ctx, 5); !errors.Is(err, domain.ErrInvalidRuleIndex) {
		t.Fatalf("Remove(5) err = %v", err)
	}
	rules, _ = r.Global(ctx)
	if len(rules) != 2 || rules[1].Text != "c rule" {
		t.Fatalf("after remove: %+v", rules)
	}

	if err := r.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	rules, _ = r.Global(ctx)
	if len(rules) != len(r.Defaults()) {
		t.Fatalf("after reset: %+v", rules)
	}
}

func TestParseRuleIndex(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 12 ", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"two", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRuleIndex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRuleIndex(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidRuleIndex) {
			t.Errorf("ParseRuleIndex(%q) err = %v, want ErrInvalidRuleIndex", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseRuleIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
