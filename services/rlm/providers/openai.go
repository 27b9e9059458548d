// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const openaiDefaultModel = "gpt-4o-mini"

// OpenAIProvider drives the OpenAI chat completions API.
//
// Credentials come from OPENAI_API_KEY, with a fallback to the
// /run/secrets/openai_api_key file. The model defaults from OPENAI_MODEL.
type OpenAIProvider struct {
	client *openai.Client
	config ProviderConfig
}

// NewOpenAIProvider creates a provider backed by the OpenAI API.
//
// Inputs:
//
//	config - Generation options; zero values pick sensible defaults.
//
// Outputs:
//
//	*OpenAIProvider - The configured provider.
//	error - ErrMissingAPIKey when no key can be found.
func NewOpenAIProvider(config ProviderConfig) (*OpenAIProvider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		if content, err := os.ReadFile(secretPath); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read OpenAI API key from secrets file", "path", secretPath)
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}

	if config.Model == "" {
		config.Model = os.Getenv("OPENAI_MODEL")
	}
	if config.Model == "" {
		config.Model = openaiDefaultModel
		slog.Warn("OPENAI_MODEL not set, defaulting to", "model", config.Model)
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		config: config,
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// NextAction implements Provider.
func (p *OpenAIProvider) NextAction(ctx context.Context, req *Request) (*ProviderResult, error) {
	apiReq := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: renderUserMessage(req)},
		},
	}
	if p.config.Temperature != nil {
		apiReq.Temperature = *p.config.Temperature
	}
	if p.config.MaxTokens > 0 {
		apiReq.MaxCompletionTokens = p.config.MaxTokens
	}
	if len(p.config.StopSequences) > 0 {
		apiReq.Stop = p.config.StopSequences
	}

	slog.Debug("Calling OpenAI", "model", p.config.Model, "iteration", req.Iteration)
	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices: %w", ErrEmptyResponse)
	}

	result, err := ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("OpenAI response unusable: %w", err)
	}
	result.RawMetadata = map[string]any{
		"id":            resp.ID,
		"model":         resp.Model,
		"finish_reason": string(resp.Choices[0].FinishReason),
	}
	return result, nil
}
