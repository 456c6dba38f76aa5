// Package apperr defines the error kinds surfaced by the dine-in workflow.
//
// Validation and state transition errors are raised before any store call.
// StoreError wraps whatever the Record Store reports, and DataIntegrityError
// marks a persisted blob that could not be parsed.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a StoreError.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotFound
	CodeConflict
	CodeUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeConflict:
		return "conflict"
	case CodeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record was modified by another writer")
)

// ValidationError is returned when input is rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError is any failure reported by the Record Store.
type StoreError struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for op. NotFound and Conflict sentinels set
// the matching code.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	code := CodeUnknown
	switch {
	case errors.Is(err, ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrConflict):
		code = CodeConflict
	}
	return &StoreError{Op: op, Code: code, Err: err}
}

func NotFound(op, what, id string) error {
	return &StoreError{
		Op:      op,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %q not found", what, id),
		Err:     ErrNotFound,
	}
}

func Conflict(op, what, id string) error {
	return &StoreError{
		Op:      op,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s %q was modified by another writer", what, id),
		Err:     ErrConflict,
	}
}

// DataIntegrityError reports a persisted blob that failed to parse.
type DataIntegrityError struct {
	Source string
	Err    error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("corrupted %s: %v", e.Source, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// StateTransitionError is an attempt to move an item along an edge that does
// not exist in the status graph.
type StateTransitionError struct {
	ItemID string
	From   string
	Action string
}

func (e *StateTransitionError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("cannot %s an item in status %s", e.Action, e.From)
	}
	return fmt.Sprintf("cannot %s item %s in status %s", e.Action, e.ItemID, e.From)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsDataIntegrity(err error) bool {
	var de *DataIntegrityError
	return errors.As(err, &de)
}

func IsStateTransition(err error) bool {
	var te *StateTransitionError
	return errors.As(err, &te)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// CodeOf returns the StoreError code of err, or CodeUnknown.
func CodeOf(err error) Code {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}
