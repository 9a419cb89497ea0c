package service

import (
	"errors"
	"fmt"

	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/domain/reconcile"
)

// Error kinds surfaced by the service. Every error returned by a Service
// method wraps exactly one of them.
var (
	// ErrNotFound means an employee or criterion id is not in its source set.
	ErrNotFound = errors.New("not found")
	// ErrLookup means a read failed; nothing was written.
	ErrLookup = errors.New("lookup failed")
	// ErrConflict means the store rejected a write and rolled it back.
	ErrConflict = errors.New("write rejected")
	// ErrInvalidSubmission means the request itself is malformed.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// classify wraps err with the service kind matching its store kind.
func classify(err error, fallback error) error {
	kind := fallback
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, reconcile.ErrUnknownCriterion):
		kind = ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		kind = ErrConflict
	case errors.Is(err, repository.ErrLookup):
		kind = ErrLookup
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Kind returns a short label for the service kind wrapped by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLookup):
		return "lookup"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidSubmission):
		return "invalid"
	default:
		return "internal"
	}
}
