package textutil

import (
	"bytes"
	"strings"
)

// SplitLines splits content into physical lines, each keeping its own
// terminator. Only '\n' ends a line, matching tree-sitter row numbering, so
// "\r\n" endings survive intact. A final line without terminator is kept.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}

	lines := make([]string, 0, bytes.Count(content, []byte{'\n'})+1)

	for len(content) > 0 {
		idx := bytes.IndexByte(content, '\n')
		if idx < 0 {
			lines = append(lines, string(content))

			break
		}

		lines = append(lines, string(content[:idx+1]))
		content = content[idx+1:]
	}

	return lines
}

// LineSpan returns the text of the 1-based inclusive line range with line
// terminators dropped. Out-of-range bounds are clamped.
func LineSpan(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}

	if end > len(lines) {
		end = len(lines)
	}

	if start > end {
		return ""
	}

	span := make([]string, 0, end-start+1)
	for _, line := range lines[start-1 : end] {
		span = append(span, strings.TrimRight(line, "\r\n"))
	}

	return strings.Join(span, "\n")
}
