// Package rules resolves the two-tier rule set injected into generator
// instructions: one user-wide global file and at most one project file found
// by walking up from a working directory.
package rules

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/assets"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Resolver reads rules for an explicit working directory. Only the global
// file is ever written.
type Resolver struct {
	globalPath string
	workDir    string
	projectRel string
	defaults   []string
	mu         sync.Mutex
}

// NewResolver builds a resolver. An empty projectRel falls back to .qa/rules.
func NewResolver(globalPath, workDir, projectRel string) *Resolver {
	if projectRel == "" {
		projectRel = domain.DefaultProjectRulesFile
	}
	return &Resolver{
		globalPath: globalPath,
		workDir:    workDir,
		projectRel: projectRel,
		defaults:   parseLines(assets.DefaultRules),
	}
}

// GlobalPath exposes the global rule file location.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// Defaults returns the built-in global rules.
func (r *Resolver) Defaults() []string {
	return append([]string(nil), r.defaults...)
}

// Global returns the global rules, creating the file with defaults on first use.
func (r *Resolver) Global(_ context.Context) ([]domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines, err := r.readGlobal()
	if err != nil {
		return nil, err
	}
	return toRules(lines, domain.ScopeGlobal), nil
}

// Project returns the rules of the nearest ancestor project file and its path.
// ok is false when no project file exists between workDir and the root.
func (r *Resolver) Project(_ context.Context) ([]domain.Rule, string, bool, error) {
	path, ok := r.findProjectFile()
	if !ok {
		return nil, "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", false, nil
		}
		return nil, "", false, errors.Wrapf(err, "read project rules %s", path)
	}
	return toRules(parseLines(data), domain.ScopeProject), path, true, nil
}

// All merges both tiers, global first.
func (r *Resolver) All(ctx context.Context) (domain.RuleSet, error) {
	global, err := r.Global(ctx)
	if err != nil {
		return domain.RuleSet{}, err
	}
	project, path, _, err := r.Project(ctx)
	if err != nil {
		return domain.RuleSet{}, err
	}
	return domain.RuleSet{Global: global, Project: project, ProjectPath: path}, nil
}

// Add appends a rule to the global file.
func (r *Resolver) Add(_ context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return errors.Wrap(domain.ErrInvalidArgument, "rule must be a single non-empty line")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lines, err := r.readGlobal()
	if err != nil {
		return err
	}
	return r.writeGlobal(append(lines, text))
}

// Remove deletes the 1-based rule n from the global file and returns its text.
// An out-of-range n leaves the file untouched.
func (r *Resolver) Remove(_ context.Context, n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines, err := r.readGlobal()
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(lines) {
		return "", errors.Wrapf(domain.ErrInvalidRuleIndex, "rule %d out of range 1..%d", n, len(lines))
	}
	removed := lines[n-1]
	kept := append(append([]string(nil), lines[:n-1]...), lines[n:]...)
	if err := r.writeGlobal(kept); err != nil {
		return "", err
	}
	return removed, nil
}

// Clear empties the global file. The file is kept so defaults are not
// recreated on the next read.
func (r *Resolver) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeGlobal(nil)
}

// Reset restores the built-in defaults.
func (r *Resolver) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeGlobal(r.defaults)
}

// ParseRuleIndex validates a user-supplied rule number.
func ParseRuleIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, errors.Wrapf(domain.ErrInvalidRuleIndex, "%q is not a positive rule number", raw)
	}
	return n, nil
}

func (r *Resolver) readGlobal() ([]string, error) {
	data, err := os.ReadFile(r.globalPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := r.writeGlobal(r.defaults); err != nil {
				return nil, err
			}
			return append([]string(nil), r.defaults...), nil
		}
		return nil, errors.Wrapf(err, "read global rules %s", r.globalPath)
	}
	return parseLines(data), nil
}

func (r *Resolver) writeGlobal(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(r.globalPath), domain.DirectoryPermissions); err != nil {
		return errors.Wrap(err, "create rules dir")
	}
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(r.globalPath, b.Bytes(), domain.FilePermissions); err != nil {
		return errors.Wrapf(err, "write global rules %s", r.globalPath)
	}
	return nil
}

func (r *Resolver) findProjectFile() (string, bool) {
	if r.workDir == "" {
		return "", false
	}
	dir, err := filepath.Abs(r.workDir)
	if err != nil {
		return "", false
	}
	global, _ := filepath.Abs(r.globalPath)
	for {
		candidate := filepath.Join(dir, r.projectRel)
		if candidate != global {
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func parseLines(data []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func toRules(lines []string, scope domain.RuleScope) []domain.Rule {
	out := make([]domain.Rule, 0, len(lines))
	for i, l := range lines {
		out = append(out, domain.Rule{Line: i + 1, Text: l, Scope: scope})
	}
	return out
}

var _ ports.RuleSource = (*Resolver)(nil)
