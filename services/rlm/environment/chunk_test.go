// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package environment

import (
	"errors"
	"strings"
	"testing"
)

func TestChunkBySize(t *testing.T) {
	t.Run("remainder in last chunk", func(t *testing.T) {
		chunks, err := ChunkBySize(strings.Repeat("a", 25), 10)
		if err != nil {
			t.Fatalf("ChunkBySize failed: %v", err)
		}
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
		if len(chunks[0]) != 10 || len(chunks[1]) != 10 {
			t.Errorf("expected full chunks of 10, got %d and %d", len(chunks[0]), len(chunks[1]))
		}
		if len(chunks[2]) != 5 {
			t.Errorf("expected last chunk of 5, got %d", len(chunks[2]))
		}
	})

	t.Run("even division emits no empty chunk", func(t *testing.T) {
		chunks, err := ChunkBySize("abcdefghi", 3)
		if err != nil {
			t.Fatalf("ChunkBySize failed: %v", err)
		}
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
		if chunks[2] != "ghi" {
			t.Errorf("expected final chunk %q, got %q", "ghi", chunks[2])
		}
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		chunks, err := ChunkBySize("", 10)
		if err != nil {
			t.Fatalf("ChunkBySize failed: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks, got %d", len(chunks))
		}
	})

	t.Run("multibyte runes count as single characters", func(t *testing.T) {
		chunks, err := ChunkBySize("héllo wörld", 4)
		if err != nil {
			t.Fatalf("ChunkBySize failed: %v", err)
		}
		if got := len([]rune(chunks[0])); got != 4 {
			t.Errorf("expected first chunk of 4 runes, got %d", got)
		}
		if strings.Join(chunks, "") != "héllo wörld" {
			t.Errorf("round trip failed: %q", strings.Join(chunks, ""))
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		for _, size := range []int{0, -1} {
			if _, err := ChunkBySize("abc", size); !errors.Is(err, ErrInvalidChunkSize) {
				t.Errorf("size %d: expected ErrInvalidChunkSize, got %v", size, err)
			}
		}
	})

	t.Run("concatenation reconstructs input", func(t *testing.T) {
		inputs := []string{
			"short",
			strings.Repeat("xyz", 1000),
			"line one\nline two\nline three",
			strings.Repeat("a", 24) + "b",
		}
		for _, input := range inputs {
			for _, size := range []int{1, 3, 7, 100, 100000} {
				chunks, err := ChunkBySize(input, size)
				if err != nil {
					t.Fatalf("ChunkBySize(%d) failed: %v", size, err)
				}
				if got := strings.Join(chunks, ""); got != input {
					t.Errorf("size %d: round trip mismatch (%d chars vs %d)", size, len(got), len(input))
				}
				for i, c := range chunks[:len(chunks)-1] {
					if len([]rune(c)) != size {
						t.Errorf("size %d: chunk %d has %d chars", size, i, len([]rune(c)))
					}
				}
			}
		}
	})
}

func TestChunkByLines(t *testing.T) {
	lines := make([]string, 250)
	for i := range lines {
		lines[i] = "Line " + strings.Repeat("x", i%7)
	}
	text := strings.Join(lines, "\n")

	t.Run("remainder in last chunk", func(t *testing.T) {
		chunks, err := ChunkByLines(text, 100)
		if err != nil {
			t.Fatalf("ChunkByLines failed: %v", err)
		}
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
		if got := len(strings.Split(chunks[2], "\n")); got != 50 {
			t.Errorf("expected 50 lines in final chunk, got %d", got)
		}
	})

	t.Run("even division", func(t *testing.T) {
		chunks, err := ChunkByLines(text, 125)
		if err != nil {
			t.Fatalf("ChunkByLines failed: %v", err)
		}
		if len(chunks) != 2 {
			t.Fatalf("expected 2 chunks, got %d", len(chunks))
		}
	})

	t.Run("invalid count", func(t *testing.T) {
		if _, err := ChunkByLines(text, 0); !errors.Is(err, ErrInvalidChunkSize) {
			t.Errorf("expected ErrInvalidChunkSize, got %v", err)
		}
	})

	t.Run("join reconstructs line sequence", func(t *testing.T) {
		for _, perChunk := range []int{1, 2, 99, 100, 250, 1000} {
			chunks, err := ChunkByLines(text, perChunk)
			if err != nil {
				t.Fatalf("ChunkByLines(%d) failed: %v", perChunk, err)
			}
			if got := strings.Join(chunks, "\n"); got != text {
				t.Errorf("perChunk %d: round trip mismatch", perChunk)
			}
		}
	})

	t.Run("trailing newline preserved", func(t *testing.T) {
		input := "a\nb\n"
		chunks, err := ChunkByLines(input, 2)
		if err != nil {
			t.Fatalf("ChunkByLines failed: %v", err)
		}
		if got := strings.Join(chunks, "\n"); got != input {
			t.Errorf("round trip mismatch: %q", got)
		}
	})
}
