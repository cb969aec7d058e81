package followup

import (
	"errors"

	"github.com/evcraddock/shepherd/internal/validate"
)

// ErrNotFound is returned when a follow-up ID does not exist.
var ErrNotFound = errors.New("follow-up not found")

// ValidationError names the first input field that failed validation.
type ValidationError = validate.Error

// StoreError wraps a failure talking to the database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
