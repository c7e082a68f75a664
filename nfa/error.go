package nfa

import (
	"errors"
	"fmt"

	"github.com/coregx/redos/ast"
)

// Common NFA errors
var (
	// ErrUnsupportedFeature indicates a construct the finite-automaton model
	// cannot represent: lookahead, negative lookahead or backreferences. The
	// parser reports lookbehind and atomic groups with the same error.
	ErrUnsupportedFeature = ast.ErrUnsupportedFeature

	// ErrMalformedQuantifier indicates a quantifier whose upper bound is below
	// its lower bound
	ErrMalformedQuantifier = errors.New("quantifier bounds out of order")

	// ErrTooComplex indicates the pattern exceeds the compiler's nesting or
	// state limits
	ErrTooComplex = errors.New("pattern too complex")

	// ErrInvalidState indicates a transition references a state that does not exist
	ErrInvalidState = errors.New("invalid NFA state")

	// ErrInvalidConfig indicates invalid configuration was provided
	ErrInvalidConfig = errors.New("invalid NFA configuration")
)

// CompileError wraps compilation errors with additional context
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("NFA compilation failed for pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("NFA compilation failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// UnsupportedFeatureError names the construct that was rejected.
type UnsupportedFeatureError = ast.UnsupportedFeatureError

// QuantifierError reports the bounds of a malformed quantifier.
type QuantifierError struct {
	AtLeast int
	AtMost  int
}

// Error implements the error interface
func (e *QuantifierError) Error() string {
	return fmt.Sprintf("%s: {%d,%d}", ErrMalformedQuantifier, e.AtLeast, e.AtMost)
}

// Unwrap returns ErrMalformedQuantifier
func (e *QuantifierError) Unwrap() error {
	return ErrMalformedQuantifier
}

// BuildError represents an error during NFA construction via the Builder API
type BuildError struct {
	Message string
	StateID StateID
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}

// Unwrap returns ErrInvalidState
func (e *BuildError) Unwrap() error {
	return ErrInvalidState
}
