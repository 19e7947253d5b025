// Package dberrors defines the uniform error taxonomy of spec.md §7
// and translates driver-specific errors into it by name, so callers
// can branch with errors.As/errors.Is regardless of which adapter ran
// the failing statement.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind is one taxonomy member.
type Kind int

const (
	ImproperlyConfigured Kind = iota
	DatabaseError
	DataError
	IntegrityError
	InterfaceError
	InternalError
	NotSupportedError
	OperationalError
	ProgrammingError
	doesNotExistKind
)

func (k Kind) String() string {
	switch k {
	case ImproperlyConfigured:
		return "ImproperlyConfigured"
	case DatabaseError:
		return "DatabaseError"
	case DataError:
		return "DataError"
	case IntegrityError:
		return "IntegrityError"
	case InterfaceError:
		return "InterfaceError"
	case InternalError:
		return "InternalError"
	case NotSupportedError:
		return "NotSupportedError"
	case OperationalError:
		return "OperationalError"
	case ProgrammingError:
		return "ProgrammingError"
	case doesNotExistKind:
		return "DoesNotExist"
	default:
		return "UnknownError"
	}
}

// Error is a taxonomy member wrapping the original driver error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether the first *Error in err's chain has the given
// Kind (for the does-not-exist kind, whether the chain holds a
// DoesNotExistError).
func Is(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	var dne *DoesNotExistError
	if kind == doesNotExistKind && errors.As(err, &dne) {
		return true
	}
	return false
}

// DoesNotExistError is raised when a model's Get finds no matching
// row. Per-model, so callers can distinguish "no User" from "no Note"
// with errors.As against the same concrete type plus a Model check.
type DoesNotExistError struct {
	Model string
}

func NewDoesNotExist(modelName string) error {
	return &DoesNotExistError{Model: modelName}
}

func (e *DoesNotExistError) Error() string {
	return fmt.Sprintf("%s matching query does not exist", e.Model)
}

// IsDoesNotExist reports whether err is a DoesNotExistError, optionally
// for a specific model name (empty string matches any model).
func IsDoesNotExist(err error, modelName string) bool {
	var dne *DoesNotExistError
	if !errors.As(err, &dne) {
		return false
	}
	return modelName == "" || dne.Model == modelName
}
