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
	"time"
)

const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3.1"
)

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message   ollamaChatMessage `json:"message"`
	CreatedAt string            `json:"created_at"`
	Done      bool              `json:"done"`
}

// OllamaProvider drives a local Ollama server for offline RLM sessions.
//
// The base URL defaults from OLLAMA_BASE_URL and the model from
// OLLAMA_MODEL.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
	config     ProviderConfig
}

// NewOllamaProvider creates a provider for a local Ollama server.
//
// Inputs:
//
//	config - Generation options; zero values pick sensible defaults.
//
// Outputs:
//
//	*OllamaProvider - The configured provider.
func NewOllamaProvider(config ProviderConfig) *OllamaProvider {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	if config.Model == "" {
		config.Model = os.Getenv("OLLAMA_MODEL")
	}
	if config.Model == "" {
		config.Model = ollamaDefaultModel
		slog.Info("OLLAMA_MODEL not set, defaulting to", "model", config.Model)
	}

	return &OllamaProvider{
		// Local generation can be slow on big models.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
		config:     config,
	}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// NextAction implements Provider.
func (p *OllamaProvider) NextAction(ctx context.Context, req *Request) (*ProviderResult, error) {
	options := map[string]any{}
	if p.config.Temperature != nil {
		options["temperature"] = *p.config.Temperature
	}
	if p.config.MaxTokens > 0 {
		options["num_predict"] = p.config.MaxTokens
	}
	if len(p.config.StopSequences) > 0 {
		options["stop"] = p.config.StopSequences
	}

	apiReq := ollamaChatRequest{
		Model: p.config.Model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: renderUserMessage(req)},
		},
		Stream:  false,
		Options: options,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("Calling Ollama", "model", p.config.Model, "iteration", req.Iteration)
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama API call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}

	result, err := ParseResponse(apiResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("ollama response unusable: %w", err)
	}
	result.RawMetadata = map[string]any{
		"model":      p.config.Model,
		"created_at": apiResp.CreatedAt,
	}
	return result, nil
}
