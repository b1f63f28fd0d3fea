package domain

import "github.com/cockroachdb/errors"

// Sentinel errors shared across layers. Absence of a record or a match is
// reported as a value, not through these, except where an operation cannot
// proceed at all (e.g. replaying an id that does not exist).
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidRuleIndex = errors.New("invalid rule index")
	ErrNoGenerator      = errors.New("no generator configured")
)
