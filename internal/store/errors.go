package store

import "fmt"

// Error is the engine-level error the Entity layer reports. It carries no
// HTTP semantics; store methods translate these into the API error
// vocabulary before they leave the package.
type Error struct {
	Message string
	Err     error // wrapped engine error, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinel outcomes of Entity operations. Index-conflict errors wrap
// ErrAlreadyExists so errors.Is matches through the added context.
var (
	ErrNotFound      = &Error{Message: "record not found"}
	ErrAlreadyExists = &Error{Message: "record already exists"}
)
