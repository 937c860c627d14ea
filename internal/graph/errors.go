package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for relational failures. Callers branch on these
// with errors.Is; the protocol adapter maps them to tool errors.
var (
	// ErrNotFound means a referenced issue or edge does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID means an issue with the supplied id already
	// exists, or the id belonged to a deleted issue (ids are never
	// reused).
	ErrDuplicateID = errors.New("duplicate issue id")

	// ErrDuplicateEdge means the exact (from, to, kind) edge already
	// exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrCycle means inserting a blocks edge would make the blocks
	// subgraph cyclic.
	ErrCycle = errors.New("dependency cycle detected")
)

// ValidationError reports a malformed field or an illegal status
// transition. It carries the offending field so the adapter can
// produce a precise message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
