package criteria

import "errors"

// Sentinel kinds for criteria errors.
var (
	ErrInvalidType = errors.New("invalid criterion type")
)
