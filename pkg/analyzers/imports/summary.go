package imports

import (
	"slices"
	"strings"
)

// Category classifies where an imported module lives.
type Category string

// Categories.
const (
	CategoryRelative Category = "relative"
	CategoryStdlib   Category = "stdlib"
	CategoryExternal Category = "external"
)

// stdlibModules lists common top-level modules of the Python standard library.
var stdlibModules = []string{
	"__future__", "abc", "argparse", "array", "ast", "asyncio", "base64", "bisect",
	"calendar", "collections", "contextlib", "copy", "csv", "dataclasses", "datetime",
	"decimal", "enum", "functools", "glob", "gzip", "hashlib", "heapq", "hmac", "html",
	"http", "importlib", "inspect", "io", "itertools", "json", "logging", "math",
	"multiprocessing", "operator", "os", "pathlib", "pickle", "platform", "pprint",
	"queue", "random", "re", "secrets", "shlex", "shutil", "signal", "socket",
	"sqlite3", "statistics", "string", "struct", "subprocess", "sys", "tempfile",
	"textwrap", "threading", "time", "timeit", "traceback", "types", "typing",
	"unittest", "urllib", "uuid", "warnings", "weakref", "xml", "zipfile", "zlib",
}

// Categorize classifies a module path such as "os.path", "numpy" or "..pkg".
func Categorize(path string) Category {
	if strings.HasPrefix(path, ".") {
		return CategoryRelative
	}

	base, _, _ := strings.Cut(path, ".")
	if slices.Contains(stdlibModules, base) {
		return CategoryStdlib
	}

	return CategoryExternal
}

// CategoryCount is the number of unused bindings in one category.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Summary aggregates a set of unused-import records.
type Summary struct {
	// Bindings is the number of records.
	Bindings int `json:"bindings"`
	// Statements is the number of distinct statements the records belong to.
	Statements int `json:"statements"`
	// Lines is the number of physical lines those statements cover.
	Lines      int             `json:"lines"`
	Categories []CategoryCount `json:"categories"`
}

// Summarize aggregates records. Categories are ordered by count, descending,
// then by name.
func Summarize(records []Record) Summary {
	seen := make(map[int]int, len(records))
	counts := make(map[Category]int)

	for _, rec := range records {
		if span := rec.EndLine - rec.Line + 1; span > seen[rec.Line] {
			seen[rec.Line] = span
		}

		counts[Categorize(rec.Path)]++
	}

	summary := Summary{
		Bindings:   len(records),
		Statements: len(seen),
		Categories: make([]CategoryCount, 0, len(counts)),
	}

	for _, span := range seen {
		summary.Lines += span
	}

	for cat, count := range counts {
		summary.Categories = append(summary.Categories, CategoryCount{Category: cat, Count: count})
	}

	slices.SortFunc(summary.Categories, func(a, b CategoryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}

		return strings.Compare(string(a.Category), string(b.Category))
	})

	return summary
}
