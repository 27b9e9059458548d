// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"context"
)

// ScriptedProvider replays a fixed sequence of raw model responses.
//
// It exists for tests and offline dry runs: each NextAction call parses the
// next canned response exactly the way the hosted providers parse live
// model output, so the session loop is exercised end to end without a
// network.
type ScriptedProvider struct {
	responses []string
	calls     int
	requests  []*Request
}

// NewScriptedProvider creates a provider that replays responses in order.
//
// Inputs:
//
//	responses - Raw model outputs in the labeled-sections format.
func NewScriptedProvider(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// Name implements Provider.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// NextAction implements Provider.
func (p *ScriptedProvider) NextAction(_ context.Context, req *Request) (*ProviderResult, error) {
	p.requests = append(p.requests, req)
	if p.calls >= len(p.responses) {
		return nil, ErrScriptExhausted
	}
	raw := p.responses[p.calls]
	p.calls++

	result, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	result.RawMetadata = map[string]any{"call": p.calls}
	return result, nil
}

// Calls returns how many times NextAction was invoked.
func (p *ScriptedProvider) Calls() int {
	return p.calls
}

// Requests returns the requests seen so far, oldest first.
func (p *ScriptedProvider) Requests() []*Request {
	return p.requests
}
