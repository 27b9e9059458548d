// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/WORKWAYCO/workway-rlm/services/rlm/environment"
	"github.com/WORKWAYCO/workway-rlm/services/rlm/providers"
)

// Session owns one run of the RLM loop.
//
// Description:
//
//	The session holds the environment, the provider, and the turn history.
//	Neither collaborator sees the history directly: the provider receives
//	it formatted as a request, and the environment only ever sees one
//	snippet at a time. A session runs exactly once; construct a new one
//	for a new question.
type Session struct {
	id         string
	env        *environment.Environment
	provider   providers.Provider
	config     RLMConfig
	sm         *stateMachine
	state      State
	history    []Turn
	iterations int
}

// New builds a session around a raw context value.
//
// Description:
//
//	Convenience constructor: seeds a fresh Environment with the context,
//	forwarding the config's output limit, then wires it to the provider.
//
// Inputs:
//
//	contextValue - string or []string context for the environment.
//	provider - The language model integration.
//	config - Session parameters.
//
// Outputs:
//
//	*Session - A session in the INIT state.
//	error - Environment construction or config validation failure.
func New(contextValue any, provider providers.Provider, config RLMConfig) (*Session, error) {
	var opts []environment.Option
	if config.MaxOutputChars > 0 {
		opts = append(opts, environment.WithMaxOutputChars(config.MaxOutputChars))
	}
	env, err := environment.NewEnvironment(contextValue, opts...)
	if err != nil {
		return nil, err
	}
	return NewSession(env, provider, config)
}

// NewSession wires an already-seeded environment to a provider.
//
// Inputs:
//
//	env - The seeded execution environment.
//	provider - The language model integration.
//	config - Session parameters.
//
// Outputs:
//
//	*Session - A session in the INIT state.
//	error - ErrNilDependency or ErrInvalidConfig.
func NewSession(env *environment.Environment, provider providers.Provider, config RLMConfig) (*Session, error) {
	if env == nil || provider == nil {
		return nil, ErrNilDependency
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Session{
		id:       uuid.NewString(),
		env:      env,
		provider: provider,
		config:   config,
		sm:       defaultStateMachine,
		state:    StateInit,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Environment returns the session's sandbox, e.g. for inspecting the
// results dict after a run.
func (s *Session) Environment() *environment.Environment {
	return s.env
}

// History returns a copy of the turn record so far.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Run executes the RLM loop until a final answer or budget exhaustion.
//
// Description:
//
//	Each iteration asks the provider for the next action. A final answer
//	terminates in DONE. A snippet is executed in the sandbox and recorded;
//	failed snippets are valid, informative turns, never session failures.
//	When the iteration budget runs out without a final answer
//	the session still returns a usable result in BUDGET_EXHAUSTED, with
//	the last successful output as the best available answer.
//
//	Provider faults are the one hard-error path: they move the session to
//	FAILED and surface as a Go error wrapping ErrProviderFailure.
//
// Inputs:
//
//	ctx - Context for cancellation; checked between iterations and passed
//	      to the provider and environment.
//	instruction - The task to answer about the context.
//
// Outputs:
//
//	*RLMResult - The outcome, for every terminal state except FAILED.
//	error - ErrEmptyInstruction, ErrSessionTerminated, or ErrProviderFailure.
func (s *Session) Run(ctx context.Context, instruction string) (*RLMResult, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, ErrEmptyInstruction
	}
	if s.state != StateInit {
		return nil, fmt.Errorf("%w: state %s", ErrSessionTerminated, s.state)
	}
	if err := s.sm.transition(s, StateRunning); err != nil {
		return nil, err
	}

	slog.Info("starting RLM session",
		"session_id", s.id,
		"provider", s.provider.Name(),
		"context", s.env.ContextInfo().Describe(),
		"max_iterations", s.config.MaxIterations)

	for s.iterations < s.config.MaxIterations {
		turnStart := time.Now()

		action, err := s.provider.NextAction(ctx, s.buildRequest(instruction))
		if err != nil {
			return nil, s.fail(fmt.Errorf("%w: %v", ErrProviderFailure, err))
		}
		if err := action.Validate(); err != nil {
			return nil, s.fail(fmt.Errorf("%w: %v", ErrProviderFailure, err))
		}

		if action.IsFinal() {
			s.history = append(s.history, Turn{
				Index:       len(s.history),
				FinalAnswer: action.FinalAnswer,
				DurationMs:  time.Since(turnStart).Milliseconds(),
				Timestamp:   time.Now(),
			})
			if err := s.sm.transition(s, StateDone); err != nil {
				return nil, err
			}
			slog.Info("session done",
				"session_id", s.id, "iterations", s.iterations)
			return s.buildResult(action.FinalAnswer), nil
		}

		result := s.env.Execute(ctx, action.Snippet)
		s.history = append(s.history, Turn{
			Index:      len(s.history),
			Snippet:    action.Snippet,
			Result:     result,
			DurationMs: time.Since(turnStart).Milliseconds(),
			Timestamp:  time.Now(),
		})
		s.iterations++

		slog.Debug("executed snippet",
			"session_id", s.id,
			"iteration", s.iterations,
			"success", result.Success,
			"output_chars", len(result.Output),
			"fault", result.Fault)
	}

	if err := s.sm.transition(s, StateBudgetExhausted); err != nil {
		return nil, err
	}
	slog.Warn("session budget exhausted",
		"session_id", s.id, "iterations", s.iterations)
	return s.buildResult(s.fallbackAnswer()), nil
}

// buildRequest formats the session history for the provider.
func (s *Session) buildRequest(instruction string) *providers.Request {
	turns := make([]providers.TurnRecord, 0, len(s.history))
	for _, turn := range s.history {
		if turn.Result == nil {
			continue
		}
		turns = append(turns, providers.TurnRecord{
			Snippet: turn.Snippet,
			Output:  turn.Result.Output,
			Error:   turn.Result.Error,
			Success: turn.Result.Success,
		})
	}
	return &providers.Request{
		Instruction:   instruction,
		ContextInfo:   s.env.ContextInfo(),
		Turns:         turns,
		Iteration:     s.iterations,
		MaxIterations: s.config.MaxIterations,
	}
}

// fallbackAnswer picks the best available partial answer after budget
// exhaustion: the most recent successful non-empty output, else an
// explicit no-answer marker.
func (s *Session) fallbackAnswer() string {
	for i := len(s.history) - 1; i >= 0; i-- {
		result := s.history[i].Result
		if result != nil && result.Success {
			if output := strings.TrimSpace(result.Output); output != "" {
				return output
			}
		}
	}
	return NoAnswerMarker
}

func (s *Session) buildResult(finalAnswer string) *RLMResult {
	return &RLMResult{
		SessionID:      s.id,
		FinalAnswer:    finalAnswer,
		State:          s.state,
		IterationsUsed: s.iterations,
		History:        s.History(),
	}
}

// fail moves the session to FAILED and returns the given error. The
// transition itself cannot fail from RUNNING.
func (s *Session) fail(err error) error {
	if terr := s.sm.transition(s, StateFailed); terr != nil {
		return fmt.Errorf("%v (and %v)", err, terr)
	}
	slog.Error("session failed", "session_id", s.id, "error", err)
	return err
}
