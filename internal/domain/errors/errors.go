package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPersistence        = errors.New("persistence error")
)

// PersistenceError carries the store failure behind an ErrPersistence.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return ErrPersistence.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
