// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicDefaultModel   = "claude-sonnet-4-20250514"
	anthropicDefaultTokens  = 4096
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`

	Temperature *float32 `json:"temperature,omitempty"`
	StopSeqs    []string `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Content    []anthropicContent `json:"content"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicProvider drives the Anthropic Messages API.
//
// Credentials come from ANTHROPIC_API_KEY, with a fallback to the
// /run/secrets/anthropic_api_key file for containerized deployments.
// The model defaults from CLAUDE_MODEL.
type AnthropicProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	config     ProviderConfig
}

// NewAnthropicProvider creates a provider for the Anthropic Messages API.
//
// Inputs:
//
//	config - Generation options; zero values pick sensible defaults.
//
// Outputs:
//
//	*AnthropicProvider - The configured provider.
//	error - ErrMissingAPIKey when no key can be found.
func NewAnthropicProvider(config ProviderConfig) (*AnthropicProvider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/anthropic_api_key"
		if content, err := os.ReadFile(secretPath); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read Anthropic API key from secrets file", "path", secretPath)
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrMissingAPIKey)
	}

	if config.Model == "" {
		config.Model = os.Getenv("CLAUDE_MODEL")
	}
	if config.Model == "" {
		config.Model = anthropicDefaultModel
		slog.Info("CLAUDE_MODEL not set, defaulting to", "model", config.Model)
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = anthropicDefaultTokens
	}

	return &AnthropicProvider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    anthropicDefaultBaseURL,
		apiKey:     apiKey,
		config:     config,
	}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// NextAction implements Provider.
func (p *AnthropicProvider) NextAction(ctx context.Context, req *Request) (*ProviderResult, error) {
	apiReq := anthropicRequest{
		Model:  p.config.Model,
		System: systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: renderUserMessage(req)},
		},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		StopSeqs:    p.config.StopSequences,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	slog.Debug("Calling Anthropic", "model", p.config.Model, "iteration", req.Iteration)
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading anthropic response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding anthropic response (status %d): %w", resp.StatusCode, err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic API error (%s): %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API returned status %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	result, err := ParseResponse(text.String())
	if err != nil {
		return nil, fmt.Errorf("anthropic response unusable: %w", err)
	}
	result.RawMetadata = map[string]any{
		"id":          apiResp.ID,
		"model":       apiResp.Model,
		"stop_reason": apiResp.StopReason,
	}
	return result, nil
}
