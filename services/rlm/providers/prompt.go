// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"fmt"
	"regexp"
	"strings"
)

// systemPrompt tells the model how the sandbox works and what shape its
// replies must take. The reply format mirrors the labeled-sections
// convention so parsing stays a line-oriented affair.
const systemPrompt = `You are answering a question about a large context that does NOT fit in your input.
The context is loaded as a variable inside a Starlark sandbox (a Python dialect).
You work iteratively: emit a short code snippet, see its printed output, repeat.
Never try to print the whole context; inspect it piece by piece.

SANDBOX VARIABLES:
- context: the full context (a string, or a list of document strings)
- results: an empty dict; store intermediate findings here, they persist across snippets
- chunk_text(text, chunk_size=10000): split text into fixed-size pieces
- chunk_lines(text, lines_per_chunk=100): split text into line groups
- re: regex helpers (re.findall, re.search, re.match, re.split, re.sub; RE2 syntax)
- json: json.encode / json.decode / json.indent

STARLARK NOTES: no f-strings (use "%" formatting), no imports, no file or network access.
Variables persist between snippets. Only print() output is returned to you.

OUTPUT FORMAT (REQUIRED):
Reasoning: <your thinking>
Action: <one of: run, final>
Code:
` + "```starlark" + `
<code to execute, when action is run>
` + "```" + `
Answer: <the final answer, when action is final>`

// renderUserMessage assembles the per-turn user message: the instruction,
// the context summary, and the transcript of prior turns.
func renderUserMessage(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", req.Instruction)
	fmt.Fprintf(&b, "Context: %s\n", req.ContextInfo.Describe())
	fmt.Fprintf(&b, "Iteration %d of %d.\n", req.Iteration+1, req.MaxIterations)

	if len(req.Turns) == 0 {
		b.WriteString("\nNo snippets have been executed yet.\n")
		return b.String()
	}

	b.WriteString("\nPrevious turns:\n")
	for i, turn := range req.Turns {
		fmt.Fprintf(&b, "\n--- turn %d ---\nCode:\n%s\n", i+1, strings.TrimSpace(turn.Snippet))
		if turn.Success {
			fmt.Fprintf(&b, "Output:\n%s\n", turn.Output)
		} else {
			fmt.Fprintf(&b, "Output:\n%s\nError: %s\n", turn.Output, turn.Error)
		}
	}
	return b.String()
}

var (
	actionRx    = regexp.MustCompile(`(?mi)^\s*Action:\s*(\w+)`)
	codeFenceRx = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\\n(.*?)```")
	codeLabelRx = regexp.MustCompile(`(?ms)^\s*Code:[ \t]*\n?(.*?)(?:^\s*Answer:|\z)`)
	answerRx    = regexp.MustCompile(`(?ms)^\s*Answer:[ \t]*(.*)\z`)
)

// ParseResponse extracts the next action from raw model text.
//
// Description:
//
//	Follows the labeled-sections contract, with fallbacks for models that
//	ignore parts of it: a bare code fence is treated as a snippet, and bare
//	prose is treated as a final answer. An empty response is a provider
//	fault.
//
// Inputs:
//
//	text - Raw model output.
//
// Outputs:
//
//	*ProviderResult - Exactly one of Snippet/FinalAnswer populated.
//	error - ErrEmptyResponse when nothing usable was found.
func ParseResponse(text string) (*ProviderResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyResponse
	}

	var action, snippet, answer string
	if m := actionRx.FindStringSubmatch(text); m != nil {
		action = strings.ToLower(m[1])
	}
	if m := codeFenceRx.FindStringSubmatch(text); m != nil {
		snippet = strings.TrimSpace(m[1])
	}
	if m := answerRx.FindStringSubmatch(text); m != nil {
		answer = strings.TrimSpace(m[1])
	}

	switch action {
	case "final", "answer", "done":
		if answer == "" {
			// The model declared itself done but skipped the Answer label;
			// the whole reply is the best available answer.
			answer = trimmed
		}
		return &ProviderResult{FinalAnswer: answer}, nil
	case "run", "query", "code", "execute":
		if snippet == "" {
			if m := codeLabelRx.FindStringSubmatch(text); m != nil {
				snippet = strings.TrimSpace(m[1])
			}
		}
		if snippet == "" {
			return nil, fmt.Errorf("%w: action %q carried no code", ErrEmptyResponse, action)
		}
		return &ProviderResult{Snippet: snippet}, nil
	}

	if snippet != "" {
		return &ProviderResult{Snippet: snippet}, nil
	}
	return &ProviderResult{FinalAnswer: trimmed}, nil
}
