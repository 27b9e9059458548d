// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session drives the recursive language model loop: ask the provider
// for the next action, execute the returned snippet in the sandbox, record
// the result, and repeat until a final answer arrives or the iteration
// budget runs out.
//
// Thread Safety:
//
//	A Session is single-owner and synchronous: one snippet runs to
//	completion before the next iteration begins, and no state is shared
//	between sessions. Callers that want parallel sessions construct an
//	independent Environment/Session pair per goroutine.
package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/WORKWAYCO/workway-rlm/services/rlm/environment"
)

// State represents a state in the session lifecycle.
type State string

const (
	// StateInit is the state of a freshly constructed session.
	StateInit State = "INIT"

	// StateRunning is the active provider/execute loop.
	StateRunning State = "RUNNING"

	// StateDone indicates the provider produced a final answer.
	StateDone State = "DONE"

	// StateFailed indicates a fault outside the normal execute/provider
	// contract, e.g. the provider was unreachable.
	StateFailed State = "FAILED"

	// StateBudgetExhausted indicates the iteration budget ran out before a
	// final answer.
	StateBudgetExhausted State = "BUDGET_EXHAUSTED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true for DONE, FAILED and BUDGET_EXHAUSTED.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateFailed, StateBudgetExhausted:
		return true
	default:
		return false
	}
}

// AllStates returns every valid session state.
func AllStates() []State {
	return []State{StateInit, StateRunning, StateDone, StateFailed, StateBudgetExhausted}
}

// NoAnswerMarker is the final answer reported when the budget runs out and
// no snippet ever produced usable output.
const NoAnswerMarker = "[no answer produced within iteration budget]"

// sessionValidate validates RLMConfig structs.
var sessionValidate = validator.New()

// RLMConfig holds the tunable parameters of one session.
//
// RLMConfig is immutable once handed to a session; modify by copying.
type RLMConfig struct {
	// MaxIterations is the iteration budget: the maximum number of
	// provider/execute turns before the session force-terminates.
	MaxIterations int `json:"max_iterations" validate:"gte=1"`

	// MaxOutputChars is forwarded to the Environment as its captured-output
	// limit. Zero keeps the environment default.
	MaxOutputChars int `json:"max_output_chars" validate:"gte=0"`
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() RLMConfig {
	return RLMConfig{
		MaxIterations:  10,
		MaxOutputChars: environment.DefaultMaxOutputChars,
	}
}

// Validate checks the configuration against its constraints.
func (c RLMConfig) Validate() error {
	return sessionValidate.Struct(c)
}

// Turn records one provider query plus the snippet execution it triggered.
//
// A turn that carries the final answer has no execution result.
type Turn struct {
	// Index is the 0-indexed iteration number.
	Index int `json:"index"`

	// Snippet is the code the provider asked to run, if any.
	Snippet string `json:"snippet,omitempty"`

	// Result is the execution record for snippet turns.
	Result *environment.ExecutionResult `json:"result,omitempty"`

	// FinalAnswer is set on the terminating turn.
	FinalAnswer string `json:"final_answer,omitempty"`

	// DurationMs is how long the full turn took, provider call included.
	DurationMs int64 `json:"duration_ms"`

	// Timestamp is when the turn completed.
	Timestamp time.Time `json:"timestamp"`
}

// RLMResult is the outcome of a session run, returned for every terminal
// state except FAILED.
type RLMResult struct {
	// SessionID identifies the session that produced this result.
	SessionID string `json:"session_id"`

	// FinalAnswer is the answer, or the budget-exhaustion fallback.
	FinalAnswer string `json:"final_answer"`

	// State is the terminal state (DONE or BUDGET_EXHAUSTED).
	State State `json:"state"`

	// IterationsUsed is how many execute iterations were consumed.
	IterationsUsed int `json:"iterations_used"`

	// History is the full ordered turn record for auditability.
	History []Turn `json:"history"`
}
