// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the rlm CLI.
package ux

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// WORKWAY palette.
var (
	ColorAccent  = lipgloss.Color("#7C5CFF") // violet - brand accents, titles
	ColorSuccess = lipgloss.Color("#2CD76C") // green - success states
	ColorWarning = lipgloss.Color("#F4D03F") // amber - warnings, partial answers
	ColorError   = lipgloss.Color("#E74C3C") // red - errors
	ColorMuted   = lipgloss.Color("#5A6374") // slate - metadata, secondary text
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Answer  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Answer: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1),
}

// IsInteractive reports whether stdout is a terminal. Non-interactive
// callers (pipes, CI) get plain output.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Render applies the style only on interactive terminals.
func Render(style lipgloss.Style, text string) string {
	if !IsInteractive() {
		return text
	}
	return style.Render(text)
}
