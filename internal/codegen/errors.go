package codegen

import (
	"errors"
	"fmt"
)

// ErrorKind classifies code generation failures.
type ErrorKind int

const (
	// ErrCall indicates an IR call could not be assembled.
	ErrCall ErrorKind = iota
	// ErrInvalidFunctionDefinition indicates a malformed function, e.g. a
	// method whose first parameter is not its owner type.
	ErrInvalidFunctionDefinition
	// ErrFunctionNotFound indicates no function matched a lookup.
	ErrFunctionNotFound
	// ErrTypeNotFound indicates an unknown type identifier.
	ErrTypeNotFound
	// ErrInvalidType indicates a static check failed, e.g. a non-bool
	// condition or mismatched declaration type.
	ErrInvalidType
	// ErrIdentConflict indicates a duplicate type or function registration.
	ErrIdentConflict
	// ErrVariableNotFound indicates an unknown variable name.
	ErrVariableNotFound
	// ErrFieldNotFound indicates an unknown struct field.
	ErrFieldNotFound
	// ErrBuild wraps an error from the underlying IR API.
	ErrBuild
)

var errorKindNames = map[ErrorKind]string{
	ErrCall:                      "call",
	ErrInvalidFunctionDefinition: "invalid function definition",
	ErrFunctionNotFound:          "function not found",
	ErrTypeNotFound:              "type not found",
	ErrInvalidType:               "invalid type",
	ErrIdentConflict:             "identifier conflict",
	ErrVariableNotFound:          "variable not found",
	ErrFieldNotFound:             "field not found",
	ErrBuild:                     "IR build failure",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a code generation error tagged with its kind. Callers add
// surrounding context at decision points.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// newError creates an Error with a formatted message.
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) a codegen Error, and
// false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var cerr *Error
	if !errors.As(err, &cerr) {
		return 0, false
	}
	return cerr.Kind, true
}
