// Package report renders pruning results for humans: a unified line diff of
// the rewrite and a table of findings.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// DiffOptions controls diff rendering.
type DiffOptions struct {
	// Color enables ANSI colors.
	Color bool
	// Context is the number of unchanged lines around each hunk.
	Context int
}

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// Diff writes a unified line diff between before and after. Nothing is written
// when the contents are equal.
func Diff(w io.Writer, path string, before, after []byte, opts DiffOptions) error {
	if string(before) == string(after) {
		return nil
	}

	lines := diffLines(string(before), string(after))

	paint := newPalette(opts.Color)

	var buf strings.Builder

	paint.header.Fprintf(&buf, "--- a/%s\n+++ b/%s\n", path, path)

	for _, h := range hunks(lines, max(opts.Context, 0)) {
		paint.hunk.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)

		for _, line := range lines[h.from:h.to] {
			text := strings.TrimRight(line.text, "\r\n")

			switch line.op {
			case diffmatchpatch.DiffDelete:
				paint.del.Fprintf(&buf, "-%s\n", text)
			case diffmatchpatch.DiffInsert:
				paint.ins.Fprintf(&buf, "+%s\n", text)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(&buf, " %s\n", text)
			}
		}
	}

	_, err := io.WriteString(w, buf.String())
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

func diffLines(before, after string) []diffLine {
	dmp := diffmatchpatch.New()

	src, dst, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lineArray)

	var lines []diffLine

	for _, d := range diffs {
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}

			lines = append(lines, diffLine{op: d.Type, text: text})
		}
	}

	return lines
}

type hunk struct {
	from, to           int
	oldStart, oldCount int
	newStart, newCount int
}

// hunks groups changed lines with up to ctx lines of surrounding context.
// Hunks whose context would touch are merged.
func hunks(lines []diffLine, ctx int) []hunk {
	var (
		out    []hunk
		oldNum = 1
		newNum = 1
		curr   *hunk
		// lastChange is the index of the last changed line in curr.
		lastChange int
	)

	for idx, line := range lines {
		if line.op != diffmatchpatch.DiffEqual {
			if curr == nil || idx-lastChange-1 > 2*ctx {
				if curr != nil {
					out = append(out, closeHunk(*curr, lines, lastChange, ctx))
				}

				start := max(idx-ctx, 0)
				oldStart, newStart := oldNum, newNum

				for _, before := range lines[start:idx] {
					if before.op != diffmatchpatch.DiffInsert {
						oldStart--
					}

					if before.op != diffmatchpatch.DiffDelete {
						newStart--
					}
				}

				curr = &hunk{from: start, oldStart: oldStart, newStart: newStart}
			}

			lastChange = idx
		}

		if line.op != diffmatchpatch.DiffInsert {
			oldNum++
		}

		if line.op != diffmatchpatch.DiffDelete {
			newNum++
		}
	}

	if curr != nil {
		out = append(out, closeHunk(*curr, lines, lastChange, ctx))
	}

	return out
}

func closeHunk(h hunk, lines []diffLine, lastChange, ctx int) hunk {
	h.to = min(lastChange+ctx+1, len(lines))

	for _, line := range lines[h.from:h.to] {
		if line.op != diffmatchpatch.DiffInsert {
			h.oldCount++
		}

		if line.op != diffmatchpatch.DiffDelete {
			h.newCount++
		}
	}

	return h
}

type palette struct {
	header, hunk, del, ins *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.Bold),
		hunk:   color.New(color.FgCyan),
		del:    color.New(color.FgRed),
		ins:    color.New(color.FgGreen),
	}

	for _, c := range []*color.Color{p.header, p.hunk, p.del, p.ins} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}
