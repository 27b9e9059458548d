// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package environment provides the execution sandbox that RLM sessions run
// agent-authored snippets in.
//
// The sandbox holds one large context value as a Starlark variable instead of
// pasting it into a prompt. Snippets are Starlark (a deterministic Python
// dialect), executed against a persistent namespace with REPL semantics: each
// Execute call sees the globals written by prior calls. Output is captured
// from the Starlark print hook into a bounded sink; snippet faults are
// classified and returned as data, never as Go errors.
//
// Thread Safety:
//
//	An Environment is single-owner. Callers that want parallel sessions must
//	construct one Environment per session; no state is shared between
//	instances.
package environment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DefaultMaxOutputChars bounds captured snippet output when no explicit
// limit is configured.
const DefaultMaxOutputChars = 10000

// TruncationMarker is appended to captured output that exceeded the
// configured limit. The returned output never exceeds the limit plus the
// length of this marker.
const TruncationMarker = "\n...output truncated..."

// Sentinel errors for the environment package.
var (
	// ErrUnsupportedContext indicates the context value is neither a string
	// nor a []string.
	ErrUnsupportedContext = errors.New("context must be a string or a []string")

	// ErrVariableNotFound indicates GetVariable was asked for a name that is
	// not bound in the namespace.
	ErrVariableNotFound = errors.New("variable not found in namespace")
)

// ContextInfo is a read-only derived view of the loaded context, suitable
// for inclusion in provider prompts.
type ContextInfo struct {
	// Type is "string" for a single document or "list" for a document list.
	Type string `json:"type"`

	// TotalChars is the character (rune) count of a string context.
	TotalChars int `json:"total_chars,omitempty"`

	// TotalLines is the line count of a string context.
	TotalLines int `json:"total_lines,omitempty"`

	// NumItems is the document count of a list context.
	NumItems int `json:"num_items,omitempty"`
}

// Describe renders the context info as a single human-readable line.
func (ci ContextInfo) Describe() string {
	if ci.Type == "list" {
		return fmt.Sprintf("list context: %d items", ci.NumItems)
	}
	return fmt.Sprintf("string context: %d chars, %d lines", ci.TotalChars, ci.TotalLines)
}

// Environment owns one context value and a mutable Starlark namespace.
//
// The namespace is seeded at construction with:
//
//	context      - the context value (string or list of strings)
//	results      - an empty dict for snippets to accumulate findings in
//	chunk_text   - chunk_text(text, chunk_size=10000) -> list of strings
//	chunk_lines  - chunk_lines(text, lines_per_chunk=100) -> list of strings
//	re           - regex module (findall, search, match, split, sub)
//	json         - JSON module (encode, decode, indent)
//
// The namespace persists across Execute calls on the same Environment.
type Environment struct {
	fileOpts       *syntax.FileOptions
	globals        starlark.StringDict
	info           ContextInfo
	maxOutputChars int
	execCount      int
}

// Option configures an Environment.
type Option func(*Environment)

// WithMaxOutputChars sets the captured-output limit in characters.
//
// Inputs:
//
//	n - Maximum characters of captured output per Execute call.
func WithMaxOutputChars(n int) Option {
	return func(e *Environment) {
		e.maxOutputChars = n
	}
}

// NewEnvironment creates a sandbox around the given context value.
//
// Description:
//
//	The context is immutable for the lifetime of the Environment: snippets
//	read it but the Environment never rebinds it. Accepts a single string
//	or an ordered list of strings ("documents").
//
// Inputs:
//
//	contextValue - string or []string context.
//	opts - Configuration options.
//
// Outputs:
//
//	*Environment - The seeded sandbox.
//	error - ErrUnsupportedContext for any other context type.
func NewEnvironment(contextValue any, opts ...Option) (*Environment, error) {
	e := &Environment{
		fileOpts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		maxOutputChars: DefaultMaxOutputChars,
	}
	for _, opt := range opts {
		opt(e)
	}

	var ctxVal starlark.Value
	switch c := contextValue.(type) {
	case string:
		ctxVal = starlark.String(c)
		e.info = ContextInfo{
			Type:       "string",
			TotalChars: len([]rune(c)),
			TotalLines: strings.Count(c, "\n") + 1,
		}
	case []string:
		items := make([]starlark.Value, len(c))
		for i, doc := range c {
			items[i] = starlark.String(doc)
		}
		ctxVal = starlark.NewList(items)
		e.info = ContextInfo{
			Type:     "list",
			NumItems: len(c),
		}
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedContext, contextValue)
	}

	e.globals = starlark.StringDict{
		"context":     ctxVal,
		"results":     starlark.NewDict(0),
		"chunk_text":  starlark.NewBuiltin("chunk_text", chunkTextBuiltin),
		"chunk_lines": starlark.NewBuiltin("chunk_lines", chunkLinesBuiltin),
		"re":          newRegexModule(),
		"json":        json.Module,
	}
	return e, nil
}

// ContextInfo returns the derived view of the loaded context.
func (e *Environment) ContextInfo() ContextInfo {
	return e.info
}

// MaxOutputChars returns the configured captured-output limit.
func (e *Environment) MaxOutputChars() int {
	return e.maxOutputChars
}

// Execute runs one snippet against the persistent namespace.
//
// Description:
//
//	All print output during the run is captured in order into a bounded
//	sink; nothing reaches the real console. On success the result carries
//	the captured output and no error. On a snippet fault the result names
//	the fault kind and message, and Output holds whatever was captured
//	before the fault so the agent can diagnose what ran.
//
//	Snippet faults are expected and recoverable; they are never returned
//	as Go errors.
//
// Inputs:
//
//	ctx - Checked for cancellation before the snippet starts. A snippet
//	      already running is not interrupted.
//	snippet - Starlark source to execute.
//
// Outputs:
//
//	*ExecutionResult - Immutable record of the run.
func (e *Environment) Execute(ctx context.Context, snippet string) *ExecutionResult {
	start := time.Now()
	e.execCount++

	if err := ctx.Err(); err != nil {
		return &ExecutionResult{
			Success:  false,
			Error:    fmt.Sprintf("%s: %v", FaultCanceled, err),
			Fault:    FaultCanceled,
			Duration: time.Since(start),
		}
	}

	sink := newOutputSink(e.maxOutputChars)
	thread := &starlark.Thread{
		Name: fmt.Sprintf("rlm-exec-%d", e.execCount),
		Print: func(_ *starlark.Thread, msg string) {
			sink.write(msg)
			sink.write("\n")
		},
	}

	f, err := e.fileOpts.Parse(fmt.Sprintf("snippet-%d.star", e.execCount), snippet, 0)
	if err != nil {
		return &ExecutionResult{
			Success:  false,
			Output:   sink.contents(),
			Error:    fmt.Sprintf("%s: %v", FaultSyntaxError, err),
			Fault:    FaultSyntaxError,
			Duration: time.Since(start),
		}
	}

	if err := starlark.ExecREPLChunk(f, thread, e.globals); err != nil {
		kind, msg := classifyFault(err)
		return &ExecutionResult{
			Success:  false,
			Output:   sink.contents(),
			Error:    fmt.Sprintf("%s: %s", kind, msg),
			Fault:    kind,
			Duration: time.Since(start),
		}
	}

	return &ExecutionResult{
		Success:  true,
		Output:   sink.contents(),
		Duration: time.Since(start),
	}
}

// GetVariable reads a value from the namespace without executing anything.
//
// Inputs:
//
//	name - Namespace binding to read.
//
// Outputs:
//
//	any - The value converted to native Go types (string, int64, float64,
//	      bool, []any, map[string]any, nil).
//	error - ErrVariableNotFound if the name is not bound.
func (e *Environment) GetVariable(name string) (any, error) {
	v, ok := e.globals[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	return fromStarlark(v), nil
}

// outputSink is the bounded capture buffer for one Execute call.
//
// It counts runes, not bytes, so the limit matches the character semantics
// of the context. Once the limit is hit all further writes are dropped and
// contents() appends the truncation marker.
type outputSink struct {
	limit     int
	buf       strings.Builder
	count     int
	truncated bool
}

func newOutputSink(limit int) *outputSink {
	return &outputSink{limit: limit}
}

func (s *outputSink) write(msg string) {
	if s.truncated {
		return
	}
	for _, r := range msg {
		if s.count >= s.limit {
			s.truncated = true
			return
		}
		s.buf.WriteRune(r)
		s.count++
	}
}

func (s *outputSink) contents() string {
	if s.truncated {
		return s.buf.String() + TruncationMarker
	}
	return s.buf.String()
}
