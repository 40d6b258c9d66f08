package verify

import (
	"errors"
	"fmt"
)

// Engine configuration errors.
var (
	// ErrUnknownEngine is returned when an engine name is not registered.
	ErrUnknownEngine = errors.New("unknown verifier engine")

	// ErrInvalidTemplate is returned when a query URL template is not an
	// absolute http(s) URL or does not reference the target.
	ErrInvalidTemplate = errors.New("invalid query URL template")

	// ErrMarkerRequired is returned when a custom engine does not declare
	// exactly one of found_marker and missing_marker.
	ErrMarkerRequired = errors.New("exactly one of found_marker and missing_marker is required")

	// ErrEngineName is returned when an engine has no name.
	ErrEngineName = errors.New("engine name is required")

	// ErrDuplicateEngine is returned when a custom engine reuses a name.
	ErrDuplicateEngine = errors.New("duplicate engine name")
)

// StatusError reports a query answered with an error status. Such a
// response is not evaluated by the found predicate.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}
