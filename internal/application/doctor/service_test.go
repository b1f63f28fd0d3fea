package doctor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/rules"
	"github.com/doeshing/qa/internal/infrastructure/store"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

func testConfig(dir string) domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Store:               domain.StoreSettings{Dir: dir, Backend: domain.BackendFile},
		Matching:            domain.MatchingSettings{SimilarityThreshold: 70, RankMinScore: 30},
		Rules:               domain.RulesSettings{GlobalFile: filepath.Join(dir, "rules"), ProjectFile: ".qa/rules"},
	}
}

func find(report domain.HealthReport, name string) domain.HealthCheck {
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	return domain.HealthCheck{}
}

func TestDoctorHealthy(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "queries"))
	cfg.Generator.Command = "llm"
	svc := &Service{
		ConfigProvider: stubConfig{cfg: cfg},
		Store:          store.NewFileStore(cfg.Store.Dir),
		Rules:          rules.NewResolver(filepath.Join(dir, "rules"), dir, ".qa/rules"),
		LookPath:       func(name string) (string, error) { return "/usr/bin/" + name, nil },
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Healthy() {
		t.Fatalf("report unhealthy: %+v", report.Checks)
	}
	if c := find(report, "Global rules"); c.Status != domain.HealthOK {
		t.Fatalf("global rules check = %+v", c)
	}
	if c := find(report, "Generator"); c.Details != "/usr/bin/llm" {
		t.Fatalf("generator check = %+v", c)
	}
}

func TestDoctorMissingGenerator(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Generator.Command = "missing-llm"
	svc := &Service{
		ConfigProvider: stubConfig{cfg: cfg},
		Store:          store.NewFileStore(dir),
		LookPath:       func(string) (string, error) { return "", errors.New("not found") },
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Healthy() || find(report, "Generator").Status != domain.HealthError {
		t.Fatalf("expected generator failure: %+v", report.Checks)
	}

	cfg.Generator.Command = ""
	svc.ConfigProvider = stubConfig{cfg: cfg}
	report, _ = svc.Run(context.Background())
	if find(report, "Generator").Status != domain.HealthWarn {
		t.Fatalf("unset generator should warn: %+v", report.Checks)
	}
}

func TestDoctorConfigError(t *testing.T) {
	svc := &Service{ConfigProvider: stubConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	if err == nil || report.Healthy() {
		t.Fatalf("expected failure, got %+v, %v", report, err)
	}
}
