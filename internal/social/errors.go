package social

import "errors"

var (
	ErrNotFound      = errors.New("social: not found")
	ErrAlreadyExists = errors.New("social: already exists")
)

// DuplicateError reports which unique field an insert collided on, so the
// HTTP layer can name the offending field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return e.Field + " already exists" }

func (e *DuplicateError) Is(target error) bool { return target == ErrAlreadyExists }
