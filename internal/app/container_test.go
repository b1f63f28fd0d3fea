package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/qa/internal/domain"
)

func writeConfig(t *testing.T, dir, backend string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	raw := "store:\n  dir: " + filepath.Join(dir, "queries") + "\n  backend: " + backend + "\n" +
		"rules:\n  global_file: " + filepath.Join(dir, "rules") + "\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildContainerBackends(t *testing.T) {
	for _, backend := range []string{domain.BackendFile, domain.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			c, err := BuildContainer(context.Background(), Options{ConfigPath: writeConfig(t, dir, backend), WorkDir: dir})
			if err != nil {
				t.Fatalf("BuildContainer: %v", err)
			}
			defer c.Close()

			ctx := context.Background()
			id, err := c.Store.Create(ctx, "list files")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !c.Store.Exists(ctx, id) {
				t.Fatal("record not persisted")
			}
			if c.QueryService.Generator != nil {
				t.Fatal("generator wired without a configured command")
			}
		})
	}
}

func TestBuildContainerUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	if _, err := BuildContainer(context.Background(), Options{ConfigPath: writeConfig(t, dir, "redis"), WorkDir: dir}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
