// Package faults defines the closed set of failure kinds surfaced by the
// pipeline. Callers branch on these with errors.Is instead of inspecting
// error strings.
package faults

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials indicates required credentials are not configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUpstream indicates a failure talking to an external service.
	ErrUpstream = errors.New("upstream error")
	// ErrInvalidInput indicates the caller supplied an unusable request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage indicates a persistence failure.
	ErrStorage = errors.New("storage error")
)

// Tag attaches a failure kind to err, keeping both matchable via errors.Is.
func Tag(kind, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, err)
}
