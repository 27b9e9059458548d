// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import "errors"

// Sentinel errors for the session package.
var (
	// ErrInvalidTransition indicates an invalid state transition was attempted.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidConfig indicates the session configuration failed validation.
	ErrInvalidConfig = errors.New("invalid session configuration")

	// ErrSessionTerminated indicates Run was called on a session that already
	// reached a terminal state.
	ErrSessionTerminated = errors.New("session already terminated")

	// ErrEmptyInstruction indicates the initial instruction is empty.
	ErrEmptyInstruction = errors.New("instruction must not be empty")

	// ErrProviderFailure indicates the provider itself failed (unreachable
	// service, contract violation). This is the one hard-error path out of a
	// session; snippet faults never produce it.
	ErrProviderFailure = errors.New("provider failure")

	// ErrNilDependency indicates the session was constructed without an
	// environment or provider.
	ErrNilDependency = errors.New("session requires an environment and a provider")
)
