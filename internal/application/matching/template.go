package matching

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

// Template is a compiled placeholder query such as "find all {{ext}} files".
type Template struct {
	Source   string
	names    []string
	literals []string
	repeated bool
	re       *regexp.Regexp
	// literal is the number of non-placeholder characters, used to prefer the
	// most specific template when several match.
	literal int
}

// TemplateMatch is a template hit with its extracted bindings.
type TemplateMatch struct {
	ID       int64
	Template string
	Command  string
	Bindings map[string]string
}

// CompileTemplate turns a placeholder query into an anchored, case-insensitive
// pattern with one capture group per placeholder occurrence.
func CompileTemplate(query string) (*Template, error) {
	locs := domain.PlaceholderPattern.FindAllStringSubmatchIndex(query, -1)
	if len(locs) == 0 {
		return nil, errors.Wrapf(domain.ErrInvalidArgument, "%q has no placeholders", query)
	}
	var (
		b        strings.Builder
		names    []string
		literals []string
		seen     = map[string]bool{}
		repeated bool
		prev     int
		literal  int
	)
	b.WriteString(`(?is)^`)
	for _, loc := range locs {
		lit := query[prev:loc[0]]
		literal += len(strings.TrimSpace(lit))
		b.WriteString(regexp.QuoteMeta(lit))
		b.WriteString(`(.+)`)
		name := query[loc[2]:loc[3]]
		repeated = repeated || seen[name]
		seen[name] = true
		names = append(names, name)
		literals = append(literals, lit)
		prev = loc[1]
	}
	tail := query[prev:]
	literal += len(strings.TrimSpace(tail))
	b.WriteString(regexp.QuoteMeta(tail))
	b.WriteString(`$`)
	literals = append(literals, tail)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, errors.Wrapf(err, "compile template %q", query)
	}
	return &Template{Source: query, names: names, literals: literals, repeated: repeated, re: re, literal: literal}, nil
}

// Names lists placeholder names in order of first appearance.
func (t *Template) Names() []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range t.names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Match tests text against the template and extracts bindings. A placeholder
// used more than once must bind the same value (compared case-insensitively)
// every time.
func (t *Template) Match(text string) (map[string]string, bool) {
	text = strings.TrimSpace(text)
	if t.repeated {
		return t.matchRepeated(text)
	}
	sub := t.re.FindStringSubmatch(text)
	if sub == nil {
		return nil, false
	}
	bindings := make(map[string]string, len(t.names))
	for i, name := range t.names {
		value := strings.TrimSpace(sub[i+1])
		if value == "" {
			return nil, false
		}
		bindings[name] = value
	}
	return bindings, true
}

// matchRepeated backtracks over every split of text, longest binding first,
// since a single regexp pass cannot express repeated groups.
func (t *Template) matchRepeated(text string) (map[string]string, bool) {
	runes := []rune(text)
	bindings := make(map[string]string, len(t.names))

	var walk func(i, pos int) bool
	walk = func(i, pos int) bool {
		lit := []rune(t.literals[i])
		if len(runes)-pos < len(lit) || !strings.EqualFold(string(runes[pos:pos+len(lit)]), string(lit)) {
			return false
		}
		pos += len(lit)
		if i == len(t.names) {
			return pos == len(runes)
		}
		name := t.names[i]
		prev, bound := bindings[name]
		for end := len(runes); end > pos; end-- {
			value := strings.TrimSpace(string(runes[pos:end]))
			if value == "" {
				continue
			}
			if bound && !strings.EqualFold(prev, value) {
				continue
			}
			if !bound {
				bindings[name] = value
			}
			if walk(i+1, end) {
				return true
			}
		}
		if !bound {
			delete(bindings, name)
		}
		return false
	}

	if !walk(0, 0) {
		return nil, false
	}
	return bindings, true
}

// moreSpecific reports whether a should win over b.
func moreSpecific(a, b *Template) bool {
	if a.literal != b.literal {
		return a.literal > b.literal
	}
	return len(a.names) < len(b.names)
}

// FindTemplate returns the successful template record that matches query.
// When several templates match, the one with the most literal text wins,
// then the one with fewer placeholders, then the earliest id.
func (m *Matcher) FindTemplate(ctx context.Context, query string) (TemplateMatch, bool, error) {
	var (
		best     TemplateMatch
		bestTmpl *Template
	)
	err := m.scan(ctx, func(rec domain.QueryRecord) {
		if !rec.Reusable() || !rec.IsTemplate() {
			return
		}
		tmpl, err := CompileTemplate(rec.Query)
		if err != nil {
			m.debug("skipping uncompilable template", map[string]interface{}{"id": rec.ID, "error": err.Error()})
			return
		}
		bindings, ok := tmpl.Match(query)
		if !ok {
			return
		}
		if bestTmpl != nil && !moreSpecific(tmpl, bestTmpl) {
			return
		}
		bestTmpl = tmpl
		best = TemplateMatch{ID: rec.ID, Template: rec.Query, Command: rec.Command, Bindings: bindings}
	})
	if err != nil {
		return TemplateMatch{}, false, err
	}
	if bestTmpl == nil {
		return TemplateMatch{}, false, nil
	}
	m.debug("template matched", map[string]interface{}{"id": best.ID, "bindings": best.Bindings})
	return best, true, nil
}
