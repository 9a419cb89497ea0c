package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// kindError carries the operation that failed alongside its kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// WrapKind annotates err with op and kind; errors.Is matches both.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// NewKind reports a failure of op with kind and no further cause.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}
