package reconcile

import "errors"

// Sentinel kinds for reconciliation errors.
var (
	ErrUnknownCriterion = errors.New("criterion not found")
)
