package entity

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when an operation targets an id that does not
// exist. It is a negative result, not a transaction-aborting failure.
var ErrNotFound = errors.New("not found")

// ValidationError carries every violation found in an input, so the caller
// can report all problems in one round trip. It is raised before any write
// begins and is never partially applied.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
