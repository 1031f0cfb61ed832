// Package node provides the tagged-variant syntax tree produced by pysyntax
// and the traversal primitives the analyzers run over it.
package node

import (
	"strconv"
	"strings"
)

// Kind tags a node with the only distinctions the import analysis cares about.
type Kind string

// Node kinds.
const (
	KindModule     Kind = "Module"
	KindIdentifier Kind = "Identifier"
	KindAttribute  Kind = "Attribute"
	KindImport     Kind = "Import"
	KindImportFrom Kind = "ImportFrom"
	KindAlias      Kind = "Alias"
	KindOther      Kind = "Other"
)

// Property keys used on Import, ImportFrom and Alias nodes.
const (
	// PropAlias holds the `as` name of an Alias node, if any.
	PropAlias = "alias"
	// PropModule holds the module path of an ImportFrom node, leading dots included.
	PropModule = "module"
	// PropWildcard is set to "true" on the Alias of `from m import *`.
	PropWildcard = "wildcard"
	// PropFuture is set to "true" on `from __future__ import ...` nodes.
	PropFuture = "future"
)

// Positions holds 1-based line/column offsets of a node.
type Positions struct {
	StartLine uint `json:"start_line,omitempty"`
	StartCol  uint `json:"start_col,omitempty"`
	EndLine   uint `json:"end_line,omitempty"`
	EndCol    uint `json:"end_col,omitempty"`
}

// Node is one element of the syntax tree.
//
// Fields:
//
//	Kind: node variant (see Kind).
//	Token: identifier name, attribute name or imported dotted name.
//	Grammar: the grammar production the node was lowered from.
//	Pos: source position.
//	Props: variant-specific properties (see Prop constants).
//	Children: ordered child nodes.
type Node struct {
	Kind     Kind              `json:"kind"`
	Token    string            `json:"token,omitempty"`
	Grammar  string            `json:"grammar,omitempty"`
	Pos      *Positions        `json:"pos,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// New creates a node of the given kind and token.
func New(kind Kind, token string) *Node {
	return &Node{Kind: kind, Token: token}
}

// AddChild appends a child node. Nil children are ignored.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}

	n.Children = append(n.Children, child)
}

// SetProp sets a property, allocating the map on first use.
func (n *Node) SetProp(key, value string) {
	if n.Props == nil {
		n.Props = make(map[string]string)
	}

	n.Props[key] = value
}

// Prop returns a property value or "".
func (n *Node) Prop(key string) string {
	if n.Props == nil {
		return ""
	}

	return n.Props[key]
}

// Line returns the 1-based start line, or 0 without position info.
func (n *Node) Line() int {
	if n.Pos == nil {
		return 0
	}

	return int(n.Pos.StartLine) //nolint:gosec // line numbers fit in int.
}

// EndLine returns the 1-based end line, or 0 without position info.
func (n *Node) EndLine() int {
	if n.Pos == nil {
		return 0
	}

	return int(n.Pos.EndLine) //nolint:gosec // line numbers fit in int.
}

// VisitPreOrder visits every node exactly once in pre-order
// (node, then children left-to-right). Iterative, so deep trees cannot
// exhaust the goroutine stack.
func (n *Node) VisitPreOrder(fn func(*Node)) {
	if n == nil {
		return
	}

	stack := []*Node{n}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(curr)

		for idx := len(curr.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, curr.Children[idx])
		}
	}
}

// Find returns all nodes (root included) for which predicate is true, in pre-order.
func (n *Node) Find(predicate func(*Node) bool) []*Node {
	var result []*Node

	n.VisitPreOrder(func(curr *Node) {
		if predicate(curr) {
			result = append(result, curr)
		}
	})

	return result
}

// HasKind reports whether the node is one of the given kinds.
func (n *Node) HasKind(kinds ...Kind) bool {
	for _, kind := range kinds {
		if n.Kind == kind {
			return true
		}
	}

	return false
}

// String renders the subtree as an s-expression, handy in test failures.
func (n *Node) String() string {
	var buf strings.Builder

	writeNode(&buf, n)

	return buf.String()
}

func writeNode(buf *strings.Builder, n *Node) {
	if n == nil {
		buf.WriteString("nil")

		return
	}

	buf.WriteByte('(')
	buf.WriteString(string(n.Kind))

	if n.Token != "" {
		buf.WriteByte(' ')
		buf.WriteString(strconv.Quote(n.Token))
	}

	if alias := n.Prop(PropAlias); alias != "" {
		buf.WriteString(" as ")
		buf.WriteString(strconv.Quote(alias))
	}

	for _, child := range n.Children {
		buf.WriteByte(' ')
		writeNode(buf, child)
	}

	buf.WriteByte(')')
}
