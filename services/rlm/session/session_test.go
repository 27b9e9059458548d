// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WORKWAYCO/workway-rlm/services/rlm/environment"
	"github.com/WORKWAYCO/workway-rlm/services/rlm/providers"
)

const runLenSnippet = "Action: run\nCode:\n```starlark\nprint(len(context))\n```"

func TestNewSession(t *testing.T) {
	env, err := environment.NewEnvironment("test")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		s, err := NewSession(env, providers.NewScriptedProvider(), DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, StateInit, s.State())
		assert.NotEmpty(t, s.ID())
	})

	t.Run("nil dependencies", func(t *testing.T) {
		_, err := NewSession(nil, providers.NewScriptedProvider(), DefaultConfig())
		assert.ErrorIs(t, err, ErrNilDependency)

		_, err = NewSession(env, nil, DefaultConfig())
		assert.ErrorIs(t, err, ErrNilDependency)
	})

	t.Run("zero iteration budget", func(t *testing.T) {
		_, err := NewSession(env, providers.NewScriptedProvider(), RLMConfig{MaxIterations: 0})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestSessionRun_FinalAnswer(t *testing.T) {
	provider := providers.NewScriptedProvider(
		runLenSnippet,
		"Reasoning: the length was printed.\nAction: final\nAnswer: The context has 28 characters.",
	)
	s, err := New("Hello world! This is a test.", provider, DefaultConfig())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "How long is the context?")
	require.NoError(t, err)

	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "The context has 28 characters.", result.FinalAnswer)
	assert.Equal(t, 1, result.IterationsUsed)

	require.Len(t, result.History, 2)
	require.NotNil(t, result.History[0].Result)
	assert.True(t, result.History[0].Result.Success)
	assert.Contains(t, result.History[0].Result.Output, "28")
	assert.Equal(t, "The context has 28 characters.", result.History[1].FinalAnswer)

	// The second provider call saw the first turn's output.
	require.Len(t, provider.Requests(), 2)
	secondReq := provider.Requests()[1]
	require.Len(t, secondReq.Turns, 1)
	assert.Contains(t, secondReq.Turns[0].Output, "28")
}

func TestSessionRun_BudgetExhausted(t *testing.T) {
	t.Run("exactly one execute on a budget of one", func(t *testing.T) {
		provider := providers.NewScriptedProvider(runLenSnippet, runLenSnippet, runLenSnippet)
		s, err := New("Hello world! This is a test.", provider, RLMConfig{MaxIterations: 1})
		require.NoError(t, err)

		result, err := s.Run(context.Background(), "How long?")
		require.NoError(t, err)

		assert.Equal(t, StateBudgetExhausted, result.State)
		assert.Equal(t, 1, result.IterationsUsed)
		assert.Equal(t, 1, provider.Calls())
		require.Len(t, result.History, 1)
	})

	t.Run("falls back to last successful output", func(t *testing.T) {
		provider := providers.NewScriptedProvider(runLenSnippet, runLenSnippet)
		s, err := New("Hello world! This is a test.", provider, RLMConfig{MaxIterations: 2})
		require.NoError(t, err)

		result, err := s.Run(context.Background(), "How long?")
		require.NoError(t, err)
		assert.Equal(t, StateBudgetExhausted, result.State)
		assert.Equal(t, "28", result.FinalAnswer)
	})

	t.Run("no output at all yields the marker", func(t *testing.T) {
		provider := providers.NewScriptedProvider(
			"Action: run\nCode:\n```starlark\nx = 1\n```",
		)
		s, err := New("test", provider, RLMConfig{MaxIterations: 1})
		require.NoError(t, err)

		result, err := s.Run(context.Background(), "Anything?")
		require.NoError(t, err)
		assert.Equal(t, NoAnswerMarker, result.FinalAnswer)
	})
}

func TestSessionRun_FailedSnippetIsATurn(t *testing.T) {
	provider := providers.NewScriptedProvider(
		"Action: run\nCode:\n```starlark\nprint(missing_name)\n```",
		"Action: final\nAnswer: recovered",
	)
	s, err := New("test", provider, DefaultConfig())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "Try something broken first.")
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "recovered", result.FinalAnswer)

	require.NotNil(t, result.History[0].Result)
	assert.False(t, result.History[0].Result.Success)
	assert.Contains(t, result.History[0].Result.Error, "undefined-reference")

	// The fault was surfaced to the provider on the next turn.
	secondReq := provider.Requests()[1]
	require.Len(t, secondReq.Turns, 1)
	assert.False(t, secondReq.Turns[0].Success)
	assert.Contains(t, secondReq.Turns[0].Error, "undefined-reference")
}

func TestSessionRun_ProviderFailure(t *testing.T) {
	s, err := New("test", providers.NewScriptedProvider(), DefaultConfig())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "Anything?")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, StateFailed, s.State())
}

type ambiguousProvider struct{}

func (ambiguousProvider) Name() string { return "ambiguous" }

func (ambiguousProvider) NextAction(context.Context, *providers.Request) (*providers.ProviderResult, error) {
	return &providers.ProviderResult{Snippet: "print(1)", FinalAnswer: "done"}, nil
}

func TestSessionRun_ProviderContractViolation(t *testing.T) {
	s, err := New("test", ambiguousProvider{}, DefaultConfig())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "Anything?")
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, StateFailed, s.State())
}

func TestSessionRun_InputValidation(t *testing.T) {
	t.Run("empty instruction", func(t *testing.T) {
		s, err := New("test", providers.NewScriptedProvider(), DefaultConfig())
		require.NoError(t, err)

		_, err = s.Run(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyInstruction)
	})

	t.Run("session is not reusable", func(t *testing.T) {
		provider := providers.NewScriptedProvider("Action: final\nAnswer: once")
		s, err := New("test", provider, DefaultConfig())
		require.NoError(t, err)

		_, err = s.Run(context.Background(), "First run.")
		require.NoError(t, err)

		_, err = s.Run(context.Background(), "Second run.")
		assert.ErrorIs(t, err, ErrSessionTerminated)
	})
}

func TestSessionRun_ResultsAccumulateAcrossIterations(t *testing.T) {
	provider := providers.NewScriptedProvider(
		"Action: run\nCode:\n```starlark\nresults[\"a\"] = 1\n```",
		"Action: run\nCode:\n```starlark\nresults[\"b\"] = 2\n```",
		"Action: final\nAnswer: stored",
	)
	s, err := New("test", provider, DefaultConfig())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "Store things.")
	require.NoError(t, err)

	v, err := s.Environment().GetVariable("results")
	require.NoError(t, err)
	resultsMap, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Len(t, resultsMap, 2)
	assert.Equal(t, int64(1), resultsMap["a"])
	assert.Equal(t, int64(2), resultsMap["b"])
}

func TestSessionRun_OutputLimitForwarded(t *testing.T) {
	provider := providers.NewScriptedProvider(
		"Action: run\nCode:\n```starlark\nfor i in range(100):\n    print(\"a long line of filler output\")\n```",
	)
	s, err := New("test", provider, RLMConfig{MaxIterations: 1, MaxOutputChars: 50})
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "Spam.")
	require.NoError(t, err)

	require.NotNil(t, result.History[0].Result)
	assert.True(t, result.History[0].Result.Truncated())
}

func TestStateMachine(t *testing.T) {
	sm := newStateMachine()

	valid := [][2]State{
		{StateInit, StateRunning},
		{StateRunning, StateDone},
		{StateRunning, StateFailed},
		{StateRunning, StateBudgetExhausted},
	}
	for _, pair := range valid {
		assert.True(t, sm.canTransition(pair[0], pair[1]), "%s -> %s should be valid", pair[0], pair[1])
	}

	invalid := [][2]State{
		{StateInit, StateDone},
		{StateDone, StateRunning},
		{StateFailed, StateRunning},
		{StateBudgetExhausted, StateRunning},
		{StateRunning, StateInit},
	}
	for _, pair := range invalid {
		assert.False(t, sm.canTransition(pair[0], pair[1]), "%s -> %s should be invalid", pair[0], pair[1])
	}

	for _, state := range AllStates() {
		if state == StateDone || state == StateFailed || state == StateBudgetExhausted {
			assert.True(t, state.IsTerminal())
		} else {
			assert.False(t, state.IsTerminal())
		}
	}
}
