package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecuteCapturesCombinedOutput(t *testing.T) {
	e := NewLocalExecutor("/bin/sh", "")
	res, err := e.Execute(context.Background(), "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitCode != 0 || !res.Ran {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "out\n") || !strings.Contains(res.Output, "err\n") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestExecuteNonZeroExitIsNotAnError(t *testing.T) {
	e := NewLocalExecutor("/bin/sh", "")
	res, err := e.Execute(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit = %d, want 3", res.ExitCode)
	}
}

func TestExecuteRunsInDir(t *testing.T) {
	dir := t.TempDir()
	e := NewLocalExecutor("/bin/sh", dir)
	res, err := e.Execute(context.Background(), "pwd")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Output, dir) {
		t.Fatalf("pwd = %q, want %q", res.Output, dir)
	}
}

func TestExecuteMissingShell(t *testing.T) {
	e := NewLocalExecutor("/nonexistent/shell", "")
	if _, err := e.Execute(context.Background(), "true"); err == nil {
		t.Fatal("expected error for missing shell")
	}
}

func TestExecuteTimeout(t *testing.T) {
	e := NewLocalExecutor("/bin/sh", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.Execute(ctx, "sleep 5"); err == nil {
		t.Fatal("expected interruption error")
	}
}

func TestNewLocalExecutorAutoShell(t *testing.T) {
	t.Setenv("SHELL", "")
	if got := NewLocalExecutor("auto", "").Shell(); got != "/bin/sh" {
		t.Fatalf("shell = %q", got)
	}
	t.Setenv("SHELL", "/bin/bash")
	if got := NewLocalExecutor("", "").Shell(); got != "/bin/bash" {
		t.Fatalf("shell = %q", got)
	}
}
