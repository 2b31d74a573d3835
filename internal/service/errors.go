package service

import (
	"errors"
	"fmt"
)

var ErrBookNotFound = errors.New("book not found")

// ConflictError is returned when another book already owns the ISBN.
type ConflictError struct {
	ISBN string
}

func NewConflictError(isbn string) *ConflictError {
	return &ConflictError{ISBN: isbn}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ISBN %s already exists", e.ISBN)
}

func IsConflictError(err error) bool {
	var cerr *ConflictError
	return errors.As(err, &cerr)
}

// StoreError wraps a persistence failure. Op names the failed operation and
// is safe to show to clients; Err is not.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsStoreError(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
}
