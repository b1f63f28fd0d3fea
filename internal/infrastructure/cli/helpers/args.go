package helpers

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

// ParseID parses a record id argument.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(domain.ErrInvalidArgument, "invalid record id %q", raw)
	}
	return id, nil
}

// ParseInt parses a numeric argument such as an exit code.
func ParseInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Wrapf(domain.ErrInvalidArgument, "%s must be a number, got %q", name, raw)
	}
	return n, nil
}

// ParseMetaPairs parses key=value arguments.
func ParseMetaPairs(args []string) ([]domain.MetaPair, error) {
	pairs := make([]domain.MetaPair, 0, len(args))
	for _, arg := range args {
		p, err := domain.ParseMetaPair(arg)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// ParseBindings parses name=value placeholder bindings.
func ParseBindings(args []string) (map[string]string, error) {
	pairs, err := ParseMetaPairs(args)
	if err != nil {
		return nil, err
	}
	bindings := make(map[string]string, len(pairs))
	for _, p := range pairs {
		bindings[p.Key] = p.Value
	}
	return bindings, nil
}

// JoinArgs rebuilds free text split across positional arguments.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
