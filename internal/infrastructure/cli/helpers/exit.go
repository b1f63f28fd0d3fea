package helpers

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitNoMatch         = 1
	ExitInvalidArgument = 2
	ExitFailure         = 3
)

// ExitError carries a specific process exit code. Silent errors have already
// been reported (or are just an exit status) and print nothing more.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NoMatch signals a lookup that found nothing.
func NoMatch() error {
	return &ExitError{Code: ExitNoMatch, Silent: true}
}

// CommandExit propagates the exit code of an executed command.
func CommandExit(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code, Silent: true}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoGenerator):
		return ExitNoMatch
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidRuleIndex):
		return ExitInvalidArgument
	default:
		return ExitFailure
	}
}

// IsSilent reports whether err should exit without printing a message.
func IsSilent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Silent
}
