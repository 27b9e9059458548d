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
)

// ErrInvalidChunkSize indicates a chunk size or line count of zero or less.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// ChunkBySize splits text into contiguous chunks of size characters (runes).
//
// Description:
//
//	Every chunk except the last has exactly size characters; the last holds
//	the remainder. When the length divides evenly the final chunk is exactly
//	size characters and no empty chunk is emitted. Concatenating the chunks
//	reconstructs the input exactly. Empty input yields an empty slice.
//
// Inputs:
//
//	text - The text to split.
//	size - Chunk size in characters; must be positive.
//
// Outputs:
//
//	[]string - The ordered chunks.
//	error - ErrInvalidChunkSize if size <= 0.
func ChunkBySize(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks, nil
}

// ChunkByLines splits text on line boundaries into groups of at most
// linesPerChunk lines.
//
// Description:
//
//	Line content and order are preserved; the final group holds the
//	remainder. Joining the chunks with newlines reconstructs the input
//	exactly.
//
// Inputs:
//
//	text - The text to split.
//	linesPerChunk - Maximum lines per chunk; must be positive.
//
// Outputs:
//
//	[]string - The ordered chunks, each a newline-joined group of lines.
//	error - ErrInvalidChunkSize if linesPerChunk <= 0.
func ChunkByLines(text string, linesPerChunk int) ([]string, error) {
	if linesPerChunk <= 0 {
		return nil, ErrInvalidChunkSize
	}
	lines := strings.Split(text, "\n")
	chunks := make([]string, 0, (len(lines)+linesPerChunk-1)/linesPerChunk)
	for i := 0; i < len(lines); i += linesPerChunk {
		end := i + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[i:end], "\n"))
	}
	return chunks, nil
}
