// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import "fmt"

// stateMachine enforces the session transition graph:
//
//	INIT    → RUNNING           : Run called
//	RUNNING → DONE              : Provider returned a final answer
//	RUNNING → BUDGET_EXHAUSTED  : Iteration budget ran out
//	RUNNING → FAILED            : Provider-level fault
//
// Terminal states have no outgoing transitions; a session is not reusable.
type stateMachine struct {
	transitions map[State]map[State]bool
}

func newStateMachine() *stateMachine {
	sm := &stateMachine{transitions: make(map[State]map[State]bool)}
	for _, state := range AllStates() {
		sm.transitions[state] = make(map[State]bool)
	}

	sm.addTransition(StateInit, StateRunning)
	sm.addTransition(StateRunning, StateDone)
	sm.addTransition(StateRunning, StateBudgetExhausted)
	sm.addTransition(StateRunning, StateFailed)

	return sm
}

func (sm *stateMachine) addTransition(from, to State) {
	sm.transitions[from][to] = true
}

// canTransition checks if a transition from one state to another is valid.
func (sm *stateMachine) canTransition(from, to State) bool {
	if toMap, ok := sm.transitions[from]; ok {
		return toMap[to]
	}
	return false
}

// transition moves the session to the target state or reports
// ErrInvalidTransition.
func (sm *stateMachine) transition(s *Session, to State) error {
	if !sm.canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

// defaultStateMachine is the shared transition table; it is immutable after
// construction so sharing it across sessions is safe.
var defaultStateMachine = newStateMachine()
