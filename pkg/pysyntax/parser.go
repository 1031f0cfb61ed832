// Package pysyntax builds the syntax tree of a Python source file.
//
// Source is parsed with the tree-sitter Python grammar and the concrete tree
// is lowered into node.Node, keeping only what import analysis needs:
// identifiers in expression position, attribute chains, import statements
// and enough structure in between for every reference to be reachable.
package pysyntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax/node"
)

// Sentinel errors for parser operations.
var (
	// ErrSyntax marks source text that is not valid Python.
	ErrSyntax = errors.New("invalid syntax")

	errNoRootNode = errors.New("pysyntax: no root node")
	errPoolType   = errors.New("pysyntax: pool returned unexpected type")
)

// SyntaxError reports the first location where the source failed to parse.
type SyntaxError struct {
	Filename string
	Line     int
	Column   int
}

// Error implements error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Filename, e.Line, e.Column, ErrSyntax)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Tree is an immutable parse of one source file.
type Tree struct {
	Root     *node.Node
	Source   []byte
	Filename string
}

// Parser parses Python source into a Tree. Safe for concurrent use.
type Parser struct {
	tsParserPool sync.Pool
}

// NewParser creates a Parser backed by a pool of tree-sitter parsers.
func NewParser() *Parser {
	lang := Language()

	return &Parser{
		tsParserPool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses content and returns its tree. Invalid source yields a
// *SyntaxError and no tree. Besides grammar errors this covers Python 2
// constructs and indentation the grammar tolerates.
func (p *Parser) Parse(ctx context.Context, filename string, content []byte) (*Tree, error) {
	tsParser, ok := p.tsParserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.tsParserPool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pysyntax: failed to parse %s: %w", filename, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if root.HasError() {
		return nil, newSyntaxError(filename, firstError(root))
	}

	l := &lowerer{source: content}

	if bad, ok := l.invalidNode(root); ok {
		return nil, newSyntaxError(filename, bad)
	}

	return &Tree{
		Root:     l.lowerModule(root),
		Source:   content,
		Filename: filename,
	}, nil
}

// firstError descends into the leftmost erroneous child until the error
// cannot be narrowed further.
func firstError(tsNode sitter.Node) sitter.Node {
	for {
		narrowed := false

		for idx := range tsNode.NamedChildCount() {
			child := tsNode.NamedChild(idx)
			if child.HasError() {
				tsNode = child
				narrowed = true

				break
			}
		}

		if !narrowed || tsNode.Type() == typeError {
			return tsNode
		}
	}
}

func newSyntaxError(filename string, tsNode sitter.Node) *SyntaxError {
	start := tsNode.StartPoint()

	return &SyntaxError{
		Filename: filename,
		Line:     int(start.Row) + 1,    //nolint:gosec // tree-sitter coordinates fit in int
		Column:   int(start.Column) + 1, //nolint:gosec // tree-sitter coordinates fit in int
	}
}
