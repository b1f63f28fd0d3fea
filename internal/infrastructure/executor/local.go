// Package executor runs shell commands on the host.
package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// LocalExecutor runs commands through "<shell> -c".
type LocalExecutor struct {
	shell string
	dir   string
}

// NewLocalExecutor builds a new executor. An empty or "auto" shell resolves
// to $SHELL, then /bin/sh.
func NewLocalExecutor(shell, dir string) *LocalExecutor {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &LocalExecutor{shell: shell, dir: dir}
}

// Shell returns the resolved shell binary.
func (e *LocalExecutor) Shell() string {
	return e.shell
}

// Execute implements ports.CommandExecutor. Stdout and stderr are captured
// interleaved. A non-zero exit is reported through the result; the error is
// reserved for commands that could not be run at all.
func (e *LocalExecutor) Execute(ctx context.Context, command string) (domain.ExecutionResult, error) {
	c := exec.CommandContext(ctx, e.shell, "-c", command)
	c.Dir = e.dir
	var out syncBuffer
	c.Stdout = &out
	c.Stderr = &out

	start := time.Now()
	err := c.Run()
	result := domain.ExecutionResult{
		Ran:        true,
		Output:     out.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode < 0 {
			result.ExitCode = 1
		}
		if ctx.Err() != nil {
			return result, errors.Wrap(ctx.Err(), "command interrupted")
		}
		return result, nil
	}
	if err != nil {
		result.Ran = false
		return result, errors.Wrapf(err, "run %s", e.shell)
	}
	return result, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
