// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WORKWAYCO/workway-rlm/pkg/ux"
	"github.com/WORKWAYCO/workway-rlm/services/rlm/providers"
	"github.com/WORKWAYCO/workway-rlm/services/rlm/session"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Config holds CLI settings loadable from a YAML file. Flags override
// whatever the file sets.
type Config struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	MaxIterations  int    `yaml:"max_iterations"`
	MaxOutputChars int    `yaml:"max_output_chars"`
	Log            struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

func defaultCLIConfig() Config {
	cfg := Config{
		Provider:       "anthropic",
		MaxIterations:  session.DefaultConfig().MaxIterations,
		MaxOutputChars: session.DefaultConfig().MaxOutputChars,
	}
	cfg.Log.Level = "info"
	return cfg
}

var (
	configPath     string
	verbose        bool
	jsonOutput     bool
	providerName   string
	modelName      string
	maxIterations  int
	maxOutputChars int
	contextFile    string
)

var rootCmd = &cobra.Command{
	Use:   "rlm",
	Short: "Run recursive language model sessions over large contexts",
	Long: `rlm loads a context too large for a single model call into a code
execution sandbox, then lets the model explore it iteratively with short
Starlark snippets until it produces a final answer.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Answer an instruction against a large context",
	Long: `Reads the context from --context-file (or stdin when the flag is
omitted) and runs a session with the given instruction.

Examples:
  rlm run --context-file server.log "How many distinct error codes appear?"
  cat corpus.txt | rlm run "Summarize the recurring themes."`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rlm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rlm %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringVar(&contextFile, "context-file", "", "file holding the context (default: stdin)")
	runCmd.Flags().StringVar(&providerName, "provider", "", "LLM provider: anthropic, openai, or ollama")
	runCmd.Flags().StringVar(&modelName, "model", "", "model identifier (provider default when empty)")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration budget for the session")
	runCmd.Flags().IntVar(&maxOutputChars, "max-output-chars", 0, "cap on sandbox output per snippet")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full session result as JSON on stdout")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	instruction := args[0]

	if providerName != "" {
		config.Provider = providerName
	}
	if modelName != "" {
		config.Model = modelName
	}
	if maxIterations > 0 {
		config.MaxIterations = maxIterations
	}
	if maxOutputChars > 0 {
		config.MaxOutputChars = maxOutputChars
	}

	contextText, err := readContext()
	if err != nil {
		return err
	}

	provider, err := buildProvider(config)
	if err != nil {
		return err
	}

	sessionConfig := session.RLMConfig{
		MaxIterations:  config.MaxIterations,
		MaxOutputChars: config.MaxOutputChars,
	}
	s, err := session.New(contextText, provider, sessionConfig)
	if err != nil {
		return err
	}

	result, err := s.Run(cmd.Context(), instruction)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	renderResult(result)
	return nil
}

// readContext loads the session context from the configured file, or from
// stdin when no file was given.
func readContext() (string, error) {
	if contextFile != "" {
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return "", fmt.Errorf("reading context file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading context from stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("no context provided: pass --context-file or pipe text on stdin")
	}
	return string(data), nil
}

func buildProvider(cfg Config) (providers.Provider, error) {
	providerConfig := providers.ProviderConfig{Model: cfg.Model}

	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		return providers.NewAnthropicProvider(providerConfig)
	case "openai":
		return providers.NewOpenAIProvider(providerConfig)
	case "ollama":
		return providers.NewOllamaProvider(providerConfig), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected anthropic, openai, or ollama)", cfg.Provider)
	}
}

func renderResult(result *session.RLMResult) {
	switch result.State {
	case session.StateDone:
		fmt.Println(ux.Render(ux.Styles.Answer, result.FinalAnswer))
	case session.StateBudgetExhausted:
		fmt.Println(ux.Render(ux.Styles.Warning, "iteration budget exhausted; best available answer:"))
		fmt.Println(ux.Render(ux.Styles.Answer, result.FinalAnswer))
	default:
		fmt.Println(ux.Render(ux.Styles.Error, fmt.Sprintf("session ended in state %s", result.State)))
	}

	meta := fmt.Sprintf("session %s  iterations %d/%d", result.SessionID, result.IterationsUsed, config.MaxIterations)
	fmt.Println(ux.Render(ux.Styles.Muted, meta))
}
