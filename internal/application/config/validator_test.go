package config

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Store:    domain.StoreSettings{Dir: "/tmp/q", Backend: domain.BackendFile, OutputLines: 50},
		Matching: domain.MatchingSettings{SimilarityThreshold: 70, RankMinScore: 30},
		Rules:    domain.RulesSettings{GlobalFile: "/tmp/rules", ProjectFile: ".qa/rules"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
		ok     bool
	}{
		{"valid", func(*domain.Config) {}, true},
		{"sqlite backend", func(c *domain.Config) { c.Store.Backend = domain.BackendSQLite }, true},
		{"unknown backend", func(c *domain.Config) { c.Store.Backend = "redis" }, false},
		{"empty dir", func(c *domain.Config) { c.Store.Dir = " " }, false},
		{"threshold above 100", func(c *domain.Config) { c.Matching.SimilarityThreshold = 101 }, false},
		{"negative rank score", func(c *domain.Config) { c.Matching.RankMinScore = -1 }, false},
		{"negative clean days", func(c *domain.Config) { c.Housekeeping.CleanDays = -1 }, false},
		{"missing project file", func(c *domain.Config) { c.Rules.ProjectFile = "" }, false},
		{"negative timeout", func(c *domain.Config) { c.Execution.TimeoutSeconds = -5 }, false},
		{"negative history", func(c *domain.Config) { c.Replay.HistorySize = -1 }, false},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(&cfg)
		err := Validate(cfg)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tt.name, err)
		}
	}
}
