// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package providers defines the capability interface between an RLM session
// and a language model, plus the concrete model integrations.
//
// A provider answers one question per call: given the instruction, a summary
// of the loaded context, and the transcript of prior turns, what happens
// next: another snippet to execute, or the final answer. Everything about
// how that answer is obtained (HTTP transport, auth, retries) is the
// provider's own concern; sessions treat the call as opaque and blocking.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/WORKWAYCO/workway-rlm/services/rlm/environment"
)

// Sentinel errors for the providers package.
var (
	// ErrAmbiguousResult indicates a ProviderResult populated with both a
	// snippet and a final answer, or with neither.
	ErrAmbiguousResult = errors.New("provider result must carry exactly one of snippet or final answer")

	// ErrMissingAPIKey indicates no API key could be found for a hosted
	// provider.
	ErrMissingAPIKey = errors.New("provider API key is missing")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("provider returned an empty response")

	// ErrScriptExhausted indicates a scripted provider ran out of canned
	// responses.
	ErrScriptExhausted = errors.New("scripted provider has no responses left")
)

// Provider is the capability a session needs from a language model.
//
// Implementations must be pure from the session's perspective: they never
// mutate session state, and successive calls with the same request are free
// to return different results (models are not deterministic) but must not
// depend on hidden session internals.
type Provider interface {
	// NextAction returns the model's next move for the given conversation
	// state: either a snippet to execute or the final answer.
	//
	// Inputs:
	//   ctx - Context for cancellation; providers doing network I/O must
	//         honor it.
	//   req - The conversation state assembled by the session.
	//
	// Outputs:
	//   *ProviderResult - Exactly one of Snippet or FinalAnswer populated.
	//   error - Non-nil only for provider-level faults (unreachable service,
	//           bad credentials, malformed response). These surface as hard
	//           session failures.
	NextAction(ctx context.Context, req *Request) (*ProviderResult, error)

	// Name identifies the provider for logging and result metadata.
	Name() string
}

// Request is the conversation state handed to a provider on each call.
type Request struct {
	// Instruction is the task the session was started with.
	Instruction string `json:"instruction"`

	// ContextInfo summarizes the loaded context without including it.
	ContextInfo environment.ContextInfo `json:"context_info"`

	// Turns is the transcript of prior snippet executions, oldest first.
	Turns []TurnRecord `json:"turns"`

	// Iteration is the 0-indexed iteration about to run.
	Iteration int `json:"iteration"`

	// MaxIterations is the session's iteration budget.
	MaxIterations int `json:"max_iterations"`
}

// TurnRecord is one prior snippet execution as the provider sees it.
type TurnRecord struct {
	// Snippet is the code that was executed.
	Snippet string `json:"snippet"`

	// Output is the captured (possibly truncated) output.
	Output string `json:"output"`

	// Error is the fault description for failed snippets.
	Error string `json:"error,omitempty"`

	// Success reports whether the snippet ran to completion.
	Success bool `json:"success"`
}

// ProviderConfig holds generation options shared by the hosted providers.
//
// ProviderConfig is immutable after construction; modify by copying.
type ProviderConfig struct {
	// Model is the provider-specific model identifier.
	Model string `json:"model"`

	// MaxTokens caps the generated response length.
	MaxTokens int `json:"max_tokens" validate:"gte=0"`

	// Temperature overrides the provider default when non-nil.
	Temperature *float32 `json:"temperature,omitempty"`

	// StopSequences stop generation when emitted.
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// ProviderResult is the provider's answer for one turn.
type ProviderResult struct {
	// Snippet is the next code snippet to execute, if any.
	Snippet string `json:"snippet,omitempty"`

	// FinalAnswer is the final answer, if the model is done.
	FinalAnswer string `json:"final_answer,omitempty"`

	// RawMetadata carries provider-specific response details for
	// auditability (response IDs, stop reasons, token counts).
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

// Validate enforces the exactly-one-of contract between Snippet and
// FinalAnswer.
func (r *ProviderResult) Validate() error {
	hasSnippet := r.Snippet != ""
	hasAnswer := r.FinalAnswer != ""
	if hasSnippet == hasAnswer {
		return fmt.Errorf("%w: snippet=%t final=%t", ErrAmbiguousResult, hasSnippet, hasAnswer)
	}
	return nil
}

// IsFinal reports whether this result carries the final answer.
func (r *ProviderResult) IsFinal() bool {
	return r.FinalAnswer != ""
}
