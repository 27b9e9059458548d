// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package environment

import (
	"errors"
	"strings"
	"time"

	"go.starlark.net/starlark"
)

// Fault kinds reported in ExecutionResult.Error. The kind always prefixes
// the fault message, e.g. "undefined-reference: undefined: foo".
const (
	// FaultSyntaxError indicates the snippet did not parse.
	FaultSyntaxError = "syntax-error"

	// FaultUndefinedReference indicates the snippet referenced an unbound name.
	FaultUndefinedReference = "undefined-reference"

	// FaultTypeMismatch indicates an operation was applied to an unsuitable value.
	FaultTypeMismatch = "type-mismatch"

	// FaultIndexOutOfRange indicates a sequence index outside its bounds.
	FaultIndexOutOfRange = "index-out-of-range"

	// FaultKeyNotFound indicates a dict lookup for a missing key.
	FaultKeyNotFound = "key-not-found"

	// FaultDivisionByZero indicates integer division or modulo by zero.
	FaultDivisionByZero = "division-by-zero"

	// FaultCanceled indicates the caller's context was canceled before the
	// snippet started.
	FaultCanceled = "canceled"

	// FaultRuntimeError is the fallback kind for any other snippet fault.
	FaultRuntimeError = "runtime-error"
)

// ExecutionResult describes one snippet run. It is produced fresh per
// Execute call and never mutated after return.
//
// Exactly one of two shapes holds: Success true with Error empty, or
// Success false with Error naming the fault kind and message. Output is
// populated in both shapes; on a fault it holds whatever was captured
// before the fault, which may be empty.
type ExecutionResult struct {
	// Success reports whether the snippet ran to completion.
	Success bool `json:"success"`

	// Output is the captured print output, possibly truncated with a
	// trailing marker.
	Output string `json:"output"`

	// Error describes the fault as "<kind>: <message>". Empty on success.
	Error string `json:"error,omitempty"`

	// Fault is the machine-readable fault kind. Empty on success.
	Fault string `json:"fault,omitempty"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// Truncated reports whether the captured output hit the configured limit.
func (r *ExecutionResult) Truncated() bool {
	return strings.HasSuffix(r.Output, TruncationMarker)
}

// classifyFault maps a Starlark execution error to a fault kind and a
// message stripped of backtrace noise.
//
// Undefined names surface from the Starlark resolver as "undefined: x";
// the remaining kinds are matched on the interpreter's runtime messages.
func classifyFault(err error) (kind, msg string) {
	msg = err.Error()
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		msg = evalErr.Msg
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "undefined:"):
		return FaultUndefinedReference, msg
	case strings.Contains(lower, "out of range"):
		return FaultIndexOutOfRange, msg
	case strings.Contains(lower, "not in dict"):
		return FaultKeyNotFound, msg
	case strings.Contains(lower, "division by zero") || strings.Contains(lower, "modulo by zero"):
		return FaultDivisionByZero, msg
	case strings.Contains(lower, "unknown binary op"),
		strings.Contains(lower, "unknown unary op"),
		strings.Contains(lower, "has no "),
		strings.Contains(lower, "want "),
		strings.Contains(lower, "invalid "),
		strings.Contains(lower, "not iterable"),
		strings.Contains(lower, "cannot convert"):
		return FaultTypeMismatch, msg
	default:
		return FaultRuntimeError, msg
	}
}
