// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command rlm runs recursive language model sessions from the terminal:
// it loads a large context into the execution sandbox, then drives the
// provider/execute loop until the model produces a final answer.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/WORKWAYCO/workway-rlm/pkg/logging"
)

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Default().Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		config = defaultCLIConfig()

		if configPath != "" {
			yamlFile, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(yamlFile, &config); err != nil {
				return err
			}
		}

		level := logging.ParseLevel(config.Log.Level)
		if verbose {
			level = logging.LevelDebug
		}
		logger := logging.New(logging.Config{
			Level:   level,
			Service: "rlm",
			JSON:    config.Log.JSON,
			Quiet:   jsonOutput && !verbose,
		})
		logger.Install()
		return nil
	}
}
