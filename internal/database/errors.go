package database

import (
	"errors"
	"fmt"
)

// ErrMissingReference is returned when a row or request refers to a batch,
// submission or question that is not in the database.
var ErrMissingReference = errors.New("missing reference")

// MissingReferenceError names the record that could not be found.
type MissingReferenceError struct {
	Kind string // "question", "uncurated submission", ...
	ID   string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Kind, e.ID)
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }
