// Package imports audits import statements against the names a file references.
package imports

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/references"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax/node"
	"github.com/Sumatoshi-tech/pyprune/pkg/textutil"
)

// Policy decides what happens to bindings whose usage cannot be judged by name.
type Policy string

// Policies.
const (
	// PolicyKeep never reports the binding.
	PolicyKeep Policy = "keep"
	// PolicyReport audits the binding like any other.
	PolicyReport Policy = "report"
)

// ParsePolicy validates a policy string.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyKeep, PolicyReport:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Options configures an Auditor.
type Options struct {
	// Aggressive is accepted for compatibility; detection ignores it.
	Aggressive bool
	// StarImports governs `from m import *`.
	StarImports Policy
	// FutureImports governs `from __future__ import ...`.
	FutureImports Policy
}

// DefaultOptions keeps star and future imports.
func DefaultOptions() Options {
	return Options{
		StarImports:   PolicyKeep,
		FutureImports: PolicyKeep,
	}
}

// Binding is one name introduced by an import statement.
type Binding struct {
	// Line and EndLine span the whole statement, 1-based.
	Line    int
	EndLine int
	// Name is the effective local name: the alias if given, else the imported name.
	Name string
	// Imported is the name as written after `import`.
	Imported string
	// Module is the `from` module, empty for plain imports.
	Module   string
	Wildcard bool
	Future   bool
}

// Path returns the module the binding is imported from.
func (b Binding) Path() string {
	if b.Module != "" {
		return b.Module
	}

	return b.Imported
}

// Record is an unused import binding with the source text of its statement.
type Record struct {
	Line    int    `json:"line"`
	EndLine int    `json:"end_line"`
	Name    string `json:"name"`
	// Path is the module the binding came from: the `from` module, or the
	// imported dotted name of a plain import.
	Path      string `json:"path"`
	Statement string `json:"statement"`
}

// Auditor finds import bindings nothing references.
type Auditor struct {
	opts   Options
	logger *slog.Logger
}

// NewAuditor creates an Auditor. Empty policies fall back to PolicyKeep.
func NewAuditor(opts Options, logger *slog.Logger) *Auditor {
	if opts.StarImports == "" {
		opts.StarImports = PolicyKeep
	}

	if opts.FutureImports == "" {
		opts.FutureImports = PolicyKeep
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Auditor{opts: opts, logger: logger}
}

// Name returns the name of the analyzer.
func (a *Auditor) Name() string {
	return "unused-imports"
}

// Options returns the effective options.
func (a *Auditor) Options() Options {
	return a.opts
}

// Audit returns the unused bindings of tree in source order. names is the
// output of references.Collect over the same tree.
func (a *Auditor) Audit(ctx context.Context, tree *pysyntax.Tree, names references.NameSet) []Record {
	if a.opts.Aggressive {
		a.logger.DebugContext(ctx, "aggressive mode has no effect on detection", "analyzer", a.Name())
	}

	lines := textutil.SplitLines(tree.Source)

	var records []Record

	for _, binding := range Bindings(tree.Root) {
		if a.exempt(binding) {
			a.logger.DebugContext(ctx, "import exempt from audit",
				"line", binding.Line, "name", binding.Name, "module", binding.Module)

			continue
		}

		if names.Has(binding.Name) {
			continue
		}

		records = append(records, Record{
			Line:      binding.Line,
			EndLine:   binding.EndLine,
			Name:      binding.Name,
			Path:      binding.Path(),
			Statement: textutil.LineSpan(lines, binding.Line, binding.EndLine),
		})
	}

	return records
}

func (a *Auditor) exempt(binding Binding) bool {
	if binding.Wildcard && a.opts.StarImports == PolicyKeep {
		return true
	}

	return binding.Future && a.opts.FutureImports == PolicyKeep
}

// Bindings lists every name bound by import statements under root, ordered
// by statement start line and by position within the statement.
func Bindings(root *node.Node) []Binding {
	var bindings []Binding

	root.VisitPreOrder(func(n *node.Node) {
		if !n.HasKind(node.KindImport, node.KindImportFrom) {
			return
		}

		module := n.Prop(node.PropModule)
		future := n.Prop(node.PropFuture) == "true"

		for _, alias := range n.Children {
			if alias.Kind != node.KindAlias {
				continue
			}

			bindings = append(bindings, Binding{
				Line:     n.Line(),
				EndLine:  max(n.EndLine(), n.Line()),
				Name:     EffectiveName(alias),
				Imported: alias.Token,
				Module:   module,
				Wildcard: alias.Prop(node.PropWildcard) == "true",
				Future:   future,
			})
		}
	})

	slices.SortStableFunc(bindings, func(x, y Binding) int {
		return x.Line - y.Line
	})

	return bindings
}

// EffectiveName returns the alias of an Alias node if present, else its imported name.
func EffectiveName(alias *node.Node) string {
	if asName := alias.Prop(node.PropAlias); asName != "" {
		return asName
	}

	return alias.Token
}
