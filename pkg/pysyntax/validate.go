package pysyntax

import (
	"bytes"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Productions the grammar accepts for Python 2 source that Python 3 rejects.
const (
	typePrintStatement = "print_statement"
	typeExecStatement  = "exec_statement"
	typeStringStart    = "string_start"
	typeInteger        = "integer"
	tokenNotEqualPy2   = "<>"
)

// invalidNode returns the first node of an error-free CST that Python 3
// would still reject: Python 2 statements and tokens, leading-zero decimal
// integers, unexpected indentation and blocks that are not indented.
func (l *lowerer) invalidNode(root sitter.Node) (sitter.Node, bool) {
	for idx := range root.NamedChildCount() {
		child := root.NamedChild(idx)
		if !child.IsExtra() && l.indented(child) {
			return child, true
		}
	}

	stack := []sitter.Node{root}

	for len(stack) > 0 {
		tsNode := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if l.rejected(tsNode) {
			return tsNode, true
		}

		// Push in reverse so the leftmost offender is found first.
		for idx := tsNode.ChildCount(); idx > 0; idx-- {
			stack = append(stack, tsNode.Child(idx-1))
		}
	}

	return sitter.Node{}, false
}

// indented reports whether only spaces and tabs precede tsNode on its line.
// Statements after a semicolon and a leading byte order mark do not count.
func (l *lowerer) indented(tsNode sitter.Node) bool {
	start := int(tsNode.StartByte()) //nolint:gosec // byte offsets fit in int
	if start > len(l.source) {
		return false
	}

	lineStart := bytes.LastIndexByte(l.source[:start], '\n') + 1
	prefix := l.source[lineStart:start]

	return len(prefix) > 0 && len(bytes.Trim(prefix, " \t")) == 0
}

func (l *lowerer) rejected(tsNode sitter.Node) bool {
	switch tsNode.Type() {
	case typePrintStatement, typeExecStatement, tokenNotEqualPy2:
		return true
	case typeStringStart:
		return strings.Contains(l.text(tsNode), "`")
	case typeInteger:
		return invalidInteger(l.text(tsNode))
	case typeBlock:
		return unindentedBlock(tsNode)
	default:
		return false
	}
}

// invalidInteger reports Python 2 octals such as 0777 and long suffixes
// such as 10L. Imaginary literals may keep leading zeros.
func invalidInteger(lit string) bool {
	if lit == "" {
		return false
	}

	switch lit[len(lit)-1] {
	case 'l', 'L':
		return true
	case 'j', 'J':
		return false
	}

	if len(lit) < 2 || lit[0] != '0' || lit[1] < '0' || lit[1] > '9' && lit[1] != '_' {
		return false
	}

	return strings.Trim(lit, "0_") != ""
}

// unindentedBlock reports a block that is empty, or that starts on a later
// line than its statement without being indented past it.
func unindentedBlock(block sitter.Node) bool {
	statements := 0

	for idx := range block.NamedChildCount() {
		if !block.NamedChild(idx).IsExtra() {
			statements++
		}
	}

	if statements == 0 {
		return true
	}

	parent := block.Parent()
	if parent.IsNull() {
		return false
	}

	start, owner := block.StartPoint(), parent.StartPoint()

	return start.Row > owner.Row && start.Column <= owner.Column
}
