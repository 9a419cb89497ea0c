package seed

import "errors"

// Sentinel kinds for fixture errors.
var (
	ErrRead    = errors.New("read fixture")
	ErrParse   = errors.New("parse fixture")
	ErrInvalid = errors.New("invalid fixture")
	ErrApply   = errors.New("apply fixture")
)
