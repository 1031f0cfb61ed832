// Package references collects every name a Python file reads.
//
// Load and store contexts are not distinguished: `x = 5` references x just
// like `print(x)` does, so a module-level assignment can mask an unused
// import of the same name. Dotted attribute chains are recorded twice over:
// the root identifier as a bare name and the full chain as a separate entry.
package references

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax/node"
)

// NameSet is a membership-only set of referenced names.
type NameSet map[string]struct{}

// Add inserts name.
func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is present, by exact match.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Len returns the number of names.
func (s NameSet) Len() int {
	return len(s)
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Collect walks the whole tree once and returns every referenced name.
func Collect(root *node.Node) NameSet {
	names := make(NameSet)

	root.VisitPreOrder(func(n *node.Node) {
		switch n.Kind {
		case node.KindIdentifier:
			names.Add(n.Token)
		case node.KindAttribute:
			if chain, ok := DottedChain(n); ok {
				names.Add(chain)
			}
		}
	})

	return names
}

// DottedChain rebuilds `a.b.c` from the outermost Attribute node down to its
// root identifier. It fails when the chain is rooted at anything else, such
// as a call or subscript.
func DottedChain(attr *node.Node) (string, bool) {
	var suffix []string

	curr := attr
	for curr != nil && curr.Kind == node.KindAttribute {
		suffix = append(suffix, curr.Token)
		curr = object(curr)
	}

	if curr == nil || curr.Kind != node.KindIdentifier {
		return "", false
	}

	var buf strings.Builder

	buf.WriteString(curr.Token)

	for idx := len(suffix) - 1; idx >= 0; idx-- {
		buf.WriteByte('.')
		buf.WriteString(suffix[idx])
	}

	return buf.String(), true
}

func object(attr *node.Node) *node.Node {
	if len(attr.Children) == 0 {
		return nil
	}

	return attr.Children[0]
}
