package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	appconfig "github.com/doeshing/qa/internal/application/config"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// RuleInspector exposes the rule tiers individually for diagnostics.
type RuleInspector interface {
	Global(ctx context.Context) ([]domain.Rule, error)
	Project(ctx context.Context) ([]domain.Rule, string, bool, error)
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Store          ports.QueryStore
	Rules          RuleInspector
	LookPath       func(string) (string, error)
}

// Run executes checks and returns a report. A config that cannot be loaded
// stops the run; every other check only contributes to the report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s, backend %s", cfg.ConfigFormatVersion, cfg.Store.Backend)))
	}

	checks = append(checks, s.storeCheck(ctx, cfg))

	if s.Rules != nil {
		checks = append(checks, s.globalRulesCheck(ctx), s.projectRulesCheck(ctx))
	}

	checks = append(checks, s.generatorCheck(cfg.Generator))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) storeCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if s.Store == nil {
		return warn("Query store", "store not initialized")
	}
	ids, err := s.Store.IDs(ctx)
	if err != nil {
		return fail("Query store", err.Error())
	}
	if cfg.Store.Backend != domain.BackendSQLite {
		if err := probeWritable(cfg.Store.Dir); err != nil {
			return fail("Query store", fmt.Sprintf("%s not writable: %v", cfg.Store.Dir, err))
		}
	}
	return ok("Query store", fmt.Sprintf("%d records in %s", len(ids), s.Store.Location()))
}

func (s *Service) globalRulesCheck(ctx context.Context) domain.HealthCheck {
	rules, err := s.Rules.Global(ctx)
	if err != nil {
		return fail("Global rules", err.Error())
	}
	if len(rules) == 0 {
		return warn("Global rules", "file is empty")
	}
	return ok("Global rules", fmt.Sprintf("%d rules", len(rules)))
}

func (s *Service) projectRulesCheck(ctx context.Context) domain.HealthCheck {
	rules, path, found, err := s.Rules.Project(ctx)
	if err != nil {
		return warn("Project rules", err.Error())
	}
	if !found {
		return ok("Project rules", "none discovered")
	}
	return ok("Project rules", fmt.Sprintf("%d rules from %s", len(rules), path))
}

func (s *Service) generatorCheck(gen domain.GeneratorSettings) domain.HealthCheck {
	if gen.Command == "" {
		return warn("Generator", "generator.command not set; only cached commands can be served")
	}
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(gen.Command)
	if err != nil {
		return fail("Generator", fmt.Sprintf("%s not found on PATH", gen.Command))
	}
	return ok("Generator", path)
}

func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
