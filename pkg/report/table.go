package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
)

// Table writes the unused-import records of path as a table followed by a
// one-line summary.
func Table(w io.Writer, path string, records []imports.Record) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetTitle(path)

	tbl.AppendHeader(table.Row{"Line", "Name", "Module", "Category", "Statement"})

	for _, rec := range records {
		tbl.AppendRow(table.Row{
			lineLabel(rec),
			rec.Name,
			rec.Path,
			string(imports.Categorize(rec.Path)),
			rec.Statement,
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d items", len(records))})

	summary := imports.Summarize(records)

	_, err := fmt.Fprintf(w, "%s\n%d unused bindings in %d statements (%d lines)\n",
		tbl.Render(), summary.Bindings, summary.Statements, summary.Lines)
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func lineLabel(rec imports.Record) string {
	if rec.EndLine > rec.Line {
		return fmt.Sprintf("%d-%d", rec.Line, rec.EndLine)
	}

	return strconv.Itoa(rec.Line)
}
