package prune

import (
	"bytes"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
	"github.com/Sumatoshi-tech/pyprune/pkg/textutil"
)

// RemoveLines drops every physical line covered by a record span and returns
// the remaining content with the number of lines removed. Surviving lines keep
// their exact bytes, terminators included.
func RemoveLines(content []byte, records []imports.Record) ([]byte, int) {
	drop := make(map[int]struct{})

	for _, rec := range records {
		for line := rec.Line; line <= max(rec.EndLine, rec.Line); line++ {
			drop[line] = struct{}{}
		}
	}

	lines := textutil.SplitLines(content)

	var (
		buf     bytes.Buffer
		removed int
	)

	buf.Grow(len(content))

	for idx, line := range lines {
		if _, ok := drop[idx+1]; ok {
			removed++

			continue
		}

		buf.WriteString(line)
	}

	return buf.Bytes(), removed
}
