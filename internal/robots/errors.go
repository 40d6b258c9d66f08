package robots

import (
	"errors"
	"fmt"
)

// Policy retrieval errors.
var (
	// ErrRobotsUnreachable is returned when robots.txt cannot be retrieved
	// at all: the host does not resolve, the connection fails, or the
	// request times out.
	ErrRobotsUnreachable = errors.New("robots.txt is unreachable")

	// ErrPolicyAbsent is returned when the server answers 404 or 410 for
	// robots.txt. The site has no exclusion policy to audit.
	ErrPolicyAbsent = errors.New("no robots.txt file has been found")

	// ErrDecode is returned when the robots.txt body cannot be converted
	// to UTF-8 from its declared charset.
	ErrDecode = errors.New("failed to decode robots.txt body")

	// ErrEmptyHost is returned when Fetch is called without a host.
	ErrEmptyHost = errors.New("host is empty")
)

// PatternError reports a Disallow wildcard that could not be compiled.
// It is never fatal; the parser logs it and moves on.
type PatternError struct {
	// Pattern is the normalized Disallow value that contained '*'.
	Pattern string
	// Err is the underlying regexp compile error.
	Err error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid wildcard pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying compile error.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// StatusError carries the HTTP status of a robots.txt response that was
// classified as a failure.
type StatusError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (HTTP %d)", e.Err, e.StatusCode)
}

// Unwrap returns the classified sentinel error.
func (e *StatusError) Unwrap() error {
	return e.Err
}
