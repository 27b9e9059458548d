// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package environment

import (
	"fmt"
	"regexp"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// chunkTextBuiltin exposes ChunkBySize as chunk_text(text, chunk_size=10000).
func chunkTextBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	size := 10000
	if err := starlark.UnpackArgs("chunk_text", args, kwargs, "text", &text, "chunk_size?", &size); err != nil {
		return nil, err
	}
	chunks, err := ChunkBySize(text, size)
	if err != nil {
		return nil, fmt.Errorf("chunk_text: %w", err)
	}
	return stringList(chunks), nil
}

// chunkLinesBuiltin exposes ChunkByLines as chunk_lines(text, lines_per_chunk=100).
func chunkLinesBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	perChunk := 100
	if err := starlark.UnpackArgs("chunk_lines", args, kwargs, "text", &text, "lines_per_chunk?", &perChunk); err != nil {
		return nil, err
	}
	chunks, err := ChunkByLines(text, perChunk)
	if err != nil {
		return nil, fmt.Errorf("chunk_lines: %w", err)
	}
	return stringList(chunks), nil
}

// newRegexModule builds the re module seeded into every namespace.
//
// The functions mirror the subset of Python's re that snippets actually
// use against large contexts:
//
//	re.findall(pattern, text)     - all matches; with one capture group,
//	                                the group text; with several, a list
//	                                per match
//	re.search(pattern, text)      - first match text, or None
//	re.match(pattern, text)       - match anchored at the start, or None
//	re.split(pattern, text)       - text split around matches
//	re.sub(pattern, repl, text)   - matches replaced (Go $1 group syntax)
//
// Patterns use Go RE2 syntax.
func newRegexModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "re",
		Members: starlark.StringDict{
			"findall": starlark.NewBuiltin("re.findall", reFindall),
			"search":  starlark.NewBuiltin("re.search", reSearch),
			"match":   starlark.NewBuiltin("re.match", reMatch),
			"split":   starlark.NewBuiltin("re.split", reSplit),
			"sub":     starlark.NewBuiltin("re.sub", reSub),
		},
	}
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid pattern %q: %v", name, pattern, err)
	}
	return rx, nil
}

func reFindall(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, text string
	if err := starlark.UnpackArgs("re.findall", args, kwargs, "pattern", &pattern, "text", &text); err != nil {
		return nil, err
	}
	rx, err := compilePattern("re.findall", pattern)
	if err != nil {
		return nil, err
	}

	switch rx.NumSubexp() {
	case 0:
		return stringList(rx.FindAllString(text, -1)), nil
	case 1:
		matches := rx.FindAllStringSubmatch(text, -1)
		groups := make([]string, len(matches))
		for i, m := range matches {
			groups[i] = m[1]
		}
		return stringList(groups), nil
	default:
		matches := rx.FindAllStringSubmatch(text, -1)
		items := make([]starlark.Value, len(matches))
		for i, m := range matches {
			items[i] = stringList(m[1:])
		}
		return starlark.NewList(items), nil
	}
}

func reSearch(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, text string
	if err := starlark.UnpackArgs("re.search", args, kwargs, "pattern", &pattern, "text", &text); err != nil {
		return nil, err
	}
	rx, err := compilePattern("re.search", pattern)
	if err != nil {
		return nil, err
	}
	loc := rx.FindStringIndex(text)
	if loc == nil {
		return starlark.None, nil
	}
	return starlark.String(text[loc[0]:loc[1]]), nil
}

func reMatch(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, text string
	if err := starlark.UnpackArgs("re.match", args, kwargs, "pattern", &pattern, "text", &text); err != nil {
		return nil, err
	}
	rx, err := compilePattern("re.match", `\A(?:`+pattern+`)`)
	if err != nil {
		return nil, err
	}
	m := rx.FindString(text)
	if m == "" && !rx.MatchString(text) {
		return starlark.None, nil
	}
	return starlark.String(m), nil
}

func reSplit(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, text string
	if err := starlark.UnpackArgs("re.split", args, kwargs, "pattern", &pattern, "text", &text); err != nil {
		return nil, err
	}
	rx, err := compilePattern("re.split", pattern)
	if err != nil {
		return nil, err
	}
	return stringList(rx.Split(text, -1)), nil
}

func reSub(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, repl, text string
	if err := starlark.UnpackArgs("re.sub", args, kwargs, "pattern", &pattern, "repl", &repl, "text", &text); err != nil {
		return nil, err
	}
	rx, err := compilePattern("re.sub", pattern)
	if err != nil {
		return nil, err
	}
	return starlark.String(rx.ReplaceAllString(text, repl)), nil
}

func stringList(items []string) *starlark.List {
	values := make([]starlark.Value, len(items))
	for i, s := range items {
		values[i] = starlark.String(s)
	}
	return starlark.NewList(values)
}
