// Package source reads line windows out of files.
package source

import (
	"bytes"
	"fmt"
	"os"
)

// Excerpt is a window of a file. StartLine and EndLine are 1-based and inclusive;
// for an empty window EndLine is StartLine-1.
type Excerpt struct {
	Text       string `json:"text"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	TotalLines int    `json:"total_lines"`
}

// ReadRange returns lines [start, start+count) of the file at path, clamped to the
// file's bounds. start 0 means line 1 and count 0 means through the end of the file,
// so ReadRange(path, 0, 0) returns the whole file. Out-of-range requests yield an
// empty excerpt, not an error.
func ReadRange(path string, start, count int) (Excerpt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Excerpt{}, fmt.Errorf("reading %s: %w", path, err)
	}
	lines := splitLines(data)
	total := len(lines)

	if start <= 0 && count <= 0 {
		return Excerpt{Text: string(data), StartLine: 1, EndLine: total, TotalLines: total}, nil
	}

	if start < 1 {
		start = 1
	}
	end := total
	if count > 0 && start-1+count < total {
		end = start - 1 + count
	}
	if start > total {
		return Excerpt{StartLine: start, EndLine: start - 1, TotalLines: total}, nil
	}

	return Excerpt{
		Text:       string(bytes.Join(lines[start-1:end], []byte("\n"))),
		StartLine:  start,
		EndLine:    end,
		TotalLines: total,
	}, nil
}

// Window returns the line range [start-padding, end+padding] as a start line and
// count suitable for ReadRange. The start is clamped at line 1.
func Window(start, end, padding int) (from, count int) {
	if padding < 0 {
		padding = 0
	}
	from = start - padding
	if from < 1 {
		from = 1
	}
	last := end + padding
	if last < from {
		last = from
	}
	return from, last - from + 1
}

// splitLines splits data on "\n". A trailing newline does not start an extra line.
func splitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	return bytes.Split(data, []byte("\n"))
}
