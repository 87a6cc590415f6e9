package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies failures crossing a component boundary
type Kind string

const (
	KindConnection  Kind = "connection"
	KindValidation  Kind = "validation"
	KindProvider    Kind = "provider"
	KindPersistence Kind = "persistence"
	KindDuplicate   Kind = "duplicate"
	KindUnknown     Kind = "unknown"
)

var (
	// ErrDuplicate is returned when a (account_id, message_id) pair already exists
	ErrDuplicate = errors.New("message already processed")
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
)

// Error carries a failure kind and the operation that produced it
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and operation name
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrDuplicate) {
		return KindDuplicate
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return KindValidation
	}
	return KindUnknown
}

// ValidationError lists field-level problems with an input payload
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (v *ValidationError) Error() string {
	return "validation failed: " + strings.Join(v.Errors, "; ")
}

// Add records a field-level error
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Warn records a non-fatal warning
func (v *ValidationError) Warn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// OrNil returns v as an error when it holds at least one field error
func (v *ValidationError) OrNil() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}
