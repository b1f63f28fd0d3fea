package domain

import (
	"fmt"
	"strings"
)

// RuleScope distinguishes user-wide rules from project rules.
type RuleScope string

const (
	ScopeGlobal  RuleScope = "global"
	ScopeProject RuleScope = "project"
)

// Rule is one advisory line of generator instructions.
type Rule struct {
	Line  int
	Text  string
	Scope RuleScope
}

// RuleSet is the merged, ordered view of both rule tiers.
type RuleSet struct {
	Global      []Rule
	Project     []Rule
	ProjectPath string
}

// Lines returns every rule text, global first.
func (s RuleSet) Lines() []string {
	out := make([]string, 0, len(s.Global)+len(s.Project))
	for _, r := range s.Global {
		out = append(out, r.Text)
	}
	for _, r := range s.Project {
		out = append(out, r.Text)
	}
	return out
}

// Format renders the rule set for prompt injection.
func (s RuleSet) Format() string {
	var b strings.Builder
	if len(s.Global) > 0 {
		b.WriteString("Global rules:\n")
		for _, r := range s.Global {
			fmt.Fprintf(&b, "%d. %s\n", r.Line, r.Text)
		}
	}
	if len(s.Project) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Project rules (%s):\n", s.ProjectPath)
		for _, r := range s.Project {
			fmt.Fprintf(&b, "%d. %s\n", r.Line, r.Text)
		}
	}
	return b.String()
}
