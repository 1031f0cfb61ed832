package pysyntax

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax/node"
)

// Tree-sitter Python production names.
const (
	typeError            = "ERROR"
	typeComment          = "comment"
	typeIdentifier       = "identifier"
	typeAttribute        = "attribute"
	typeDottedName       = "dotted_name"
	typeAliasedImport    = "aliased_import"
	typeWildcardImport   = "wildcard_import"
	typeImport           = "import_statement"
	typeImportFrom       = "import_from_statement"
	typeFutureImport     = "future_import_statement"
	typeFunctionDef      = "function_definition"
	typeClassDef         = "class_definition"
	typeParameters       = "parameters"
	typeLambdaParameters = "lambda_parameters"
	typeDefaultParam     = "default_parameter"
	typeTypedParam       = "typed_parameter"
	typeTypedDefault     = "typed_default_parameter"
	typeKeywordArgument  = "keyword_argument"
	typeGlobal           = "global_statement"
	typeNonlocal         = "nonlocal_statement"
	typeExceptClause     = "except_clause"
	typeExceptGroup      = "except_group_clause"
	typeAsPattern        = "as_pattern"
	typeCasePattern      = "case_pattern"
	typeClassPattern     = "class_pattern"
	typeKeywordPattern   = "keyword_pattern"
	typeSplatPattern     = "splat_pattern"
	typeBlock            = "block"
)

const futureModule = "__future__"

// lowerCtx carries the binding context a CST node is lowered in.
type lowerCtx struct {
	// pattern is set inside match-case patterns, where bare names are captures.
	pattern bool
	// dropAsAlias is set where `X as name` binds name without reading it.
	dropAsAlias bool
}

type lowerer struct {
	source []byte
}

func (l *lowerer) lowerModule(root sitter.Node) *node.Node {
	module := l.newNode(node.KindModule, "", root)
	l.lowerChildren(module, root, lowerCtx{})

	return module
}

// lower converts one CST node. It returns nil when the subtree holds nothing
// the analysis can observe.
func (l *lowerer) lower(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	switch tsNode.Type() {
	case typeComment:
		return nil
	case typeIdentifier:
		if ctx.pattern {
			return nil
		}

		return l.newNode(node.KindIdentifier, l.text(tsNode), tsNode)
	case typeAttribute:
		return l.lowerAttribute(tsNode, ctx)
	case typeDottedName:
		return l.lowerDottedName(tsNode, ctx)
	case typeImport:
		return l.lowerImport(tsNode)
	case typeImportFrom, typeFutureImport:
		return l.lowerImportFrom(tsNode)
	case typeFunctionDef, typeClassDef:
		return l.lowerWithout(tsNode, ctx, "name")
	case typeParameters, typeLambdaParameters:
		return l.lowerParameters(tsNode)
	case typeKeywordArgument:
		return l.lowerFields(tsNode, ctx, "value")
	case typeGlobal, typeNonlocal:
		return nil
	case typeExceptClause, typeExceptGroup:
		return l.lowerExceptClause(tsNode, ctx)
	case typeAsPattern:
		return l.lowerAsPattern(tsNode, ctx)
	case typeCasePattern:
		ctx.pattern = true

		return l.lowerGeneric(tsNode, ctx)
	case typeClassPattern:
		return l.lowerClassPattern(tsNode, ctx)
	case typeKeywordPattern:
		return l.lowerKeywordPattern(tsNode, ctx)
	case typeSplatPattern:
		return nil
	default:
		return l.lowerGeneric(tsNode, ctx)
	}
}

func (l *lowerer) lowerGeneric(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	other := l.newNode(node.KindOther, "", tsNode)
	l.lowerChildren(other, tsNode, ctx)

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

func (l *lowerer) lowerChildren(parent *node.Node, tsNode sitter.Node, ctx lowerCtx) {
	for idx := range tsNode.NamedChildCount() {
		parent.AddChild(l.lower(tsNode.NamedChild(idx), ctx))
	}
}

// lowerWithout lowers every named child except the ones held by the given fields.
func (l *lowerer) lowerWithout(tsNode sitter.Node, ctx lowerCtx, fields ...string) *node.Node {
	skipped := make([]sitter.Node, 0, len(fields))

	for _, field := range fields {
		if fieldNode := tsNode.ChildByFieldName(field); !fieldNode.IsNull() {
			skipped = append(skipped, fieldNode)
		}
	}

	other := l.newNode(node.KindOther, "", tsNode)

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if containsNode(skipped, child) {
			continue
		}

		other.AddChild(l.lower(child, ctx))
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

// lowerFields lowers only the children held by the given fields.
func (l *lowerer) lowerFields(tsNode sitter.Node, ctx lowerCtx, fields ...string) *node.Node {
	other := l.newNode(node.KindOther, "", tsNode)

	for _, field := range fields {
		if fieldNode := tsNode.ChildByFieldName(field); !fieldNode.IsNull() {
			other.AddChild(l.lower(fieldNode, ctx))
		}
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

func (l *lowerer) lowerAttribute(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	attr := l.newNode(node.KindAttribute, "", tsNode)

	if nameNode := tsNode.ChildByFieldName("attribute"); !nameNode.IsNull() {
		attr.Token = l.text(nameNode)
	}

	if object := tsNode.ChildByFieldName("object"); !object.IsNull() {
		attr.AddChild(l.lower(object, ctx))
	}

	return attr
}

// lowerDottedName turns `a.b.c` outside imports into the same
// Attribute(Attribute(Identifier)) shape an attribute expression has.
// Inside patterns a single-part name is a capture and binds only.
func (l *lowerer) lowerDottedName(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	parts := l.identifierParts(tsNode)
	if len(parts) == 0 {
		return nil
	}

	if ctx.pattern && len(parts) == 1 {
		return nil
	}

	curr := l.newNode(node.KindIdentifier, l.text(parts[0]), parts[0])

	for _, part := range parts[1:] {
		attr := l.newNode(node.KindAttribute, l.text(part), tsNode)
		attr.Pos.EndLine, attr.Pos.EndCol = endPosition(part)
		attr.AddChild(curr)
		curr = attr
	}

	return curr
}

func (l *lowerer) lowerParameters(tsNode sitter.Node) *node.Node {
	other := l.newNode(node.KindOther, "", tsNode)

	for idx := range tsNode.NamedChildCount() {
		param := tsNode.NamedChild(idx)

		switch param.Type() {
		case typeDefaultParam:
			other.AddChild(l.lowerFields(param, lowerCtx{}, "value"))
		case typeTypedParam:
			other.AddChild(l.lowerFields(param, lowerCtx{}, "type"))
		case typeTypedDefault:
			other.AddChild(l.lowerFields(param, lowerCtx{}, "type", "value"))
		}
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

// lowerExceptClause drops the name bound by `except E as name`. Older
// grammars expose it as a second bare expression, newer ones as an alias
// field or an as_pattern.
func (l *lowerer) lowerExceptClause(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	alias := tsNode.ChildByFieldName("alias")
	other := l.newNode(node.KindOther, "", tsNode)
	expressions := 0

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)

		switch {
		case !alias.IsNull() && sameNode(child, alias):
			continue
		case child.Type() == typeBlock || child.Type() == typeComment:
			other.AddChild(l.lower(child, lowerCtx{}))
		case child.Type() == typeAsPattern:
			expressions++

			other.AddChild(l.lower(child, lowerCtx{dropAsAlias: true}))
		default:
			expressions++
			if expressions == 2 && alias.IsNull() && child.Type() == typeIdentifier {
				continue
			}

			other.AddChild(l.lower(child, ctx))
		}
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

func (l *lowerer) lowerAsPattern(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	if ctx.dropAsAlias || ctx.pattern {
		inner := ctx
		inner.dropAsAlias = false

		return l.lowerWithout(tsNode, inner, "alias")
	}

	return l.lowerGeneric(tsNode, ctx)
}

// lowerClassPattern reads the class of `case Point(x=0)`; its arguments stay patterns.
func (l *lowerer) lowerClassPattern(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	other := l.newNode(node.KindOther, "", tsNode)

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if idx == 0 && child.Type() == typeDottedName {
			other.AddChild(l.lowerDottedName(child, lowerCtx{}))

			continue
		}

		other.AddChild(l.lower(child, ctx))
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

func (l *lowerer) lowerKeywordPattern(tsNode sitter.Node, ctx lowerCtx) *node.Node {
	other := l.newNode(node.KindOther, "", tsNode)

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if idx == 0 && child.Type() == typeIdentifier {
			continue
		}

		other.AddChild(l.lower(child, ctx))
	}

	if len(other.Children) == 0 {
		return nil
	}

	return other
}

func (l *lowerer) lowerImport(tsNode sitter.Node) *node.Node {
	imp := l.newNode(node.KindImport, "", tsNode)

	for idx := range tsNode.NamedChildCount() {
		imp.AddChild(l.lowerImportedName(tsNode.NamedChild(idx)))
	}

	return imp
}

func (l *lowerer) lowerImportFrom(tsNode sitter.Node) *node.Node {
	imp := l.newNode(node.KindImportFrom, "", tsNode)
	module := tsNode.ChildByFieldName("module_name")

	switch {
	case tsNode.Type() == typeFutureImport:
		imp.SetProp(node.PropModule, futureModule)
	case !module.IsNull():
		imp.SetProp(node.PropModule, compactSpace(l.text(module)))
	}

	if imp.Prop(node.PropModule) == futureModule {
		imp.SetProp(node.PropFuture, "true")
	}

	imp.Token = imp.Prop(node.PropModule)

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if !module.IsNull() && sameNode(child, module) {
			continue
		}

		imp.AddChild(l.lowerImportedName(child))
	}

	return imp
}

// lowerImportedName lowers one `name` / `name as alias` / `*` of an import.
func (l *lowerer) lowerImportedName(tsNode sitter.Node) *node.Node {
	switch tsNode.Type() {
	case typeDottedName, typeIdentifier:
		return l.newNode(node.KindAlias, l.dottedText(tsNode), tsNode)
	case typeAliasedImport:
		alias := l.newNode(node.KindAlias, "", tsNode)

		if name := tsNode.ChildByFieldName("name"); !name.IsNull() {
			alias.Token = l.dottedText(name)
		}

		if asName := tsNode.ChildByFieldName("alias"); !asName.IsNull() {
			alias.SetProp(node.PropAlias, l.text(asName))
		}

		return alias
	case typeWildcardImport:
		alias := l.newNode(node.KindAlias, "*", tsNode)
		alias.SetProp(node.PropWildcard, "true")

		return alias
	default:
		return nil
	}
}

func (l *lowerer) identifierParts(tsNode sitter.Node) []sitter.Node {
	parts := make([]sitter.Node, 0, tsNode.NamedChildCount())

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if child.Type() == typeIdentifier {
			parts = append(parts, child)
		}
	}

	return parts
}

// dottedText renders a dotted name without the whitespace Python tolerates around dots.
func (l *lowerer) dottedText(tsNode sitter.Node) string {
	if tsNode.Type() != typeDottedName {
		return l.text(tsNode)
	}

	parts := l.identifierParts(tsNode)
	names := make([]string, 0, len(parts))

	for _, part := range parts {
		names = append(names, l.text(part))
	}

	return strings.Join(names, ".")
}

func (l *lowerer) text(tsNode sitter.Node) string {
	start := tsNode.StartByte()
	end := tsNode.EndByte()

	if start >= end || int(end) > len(l.source) {
		return ""
	}

	return string(l.source[start:end])
}

func (l *lowerer) newNode(kind node.Kind, token string, tsNode sitter.Node) *node.Node {
	start := tsNode.StartPoint()
	endLine, endCol := endPosition(tsNode)

	return &node.Node{
		Kind:    kind,
		Token:   token,
		Grammar: tsNode.Type(),
		Pos: &node.Positions{
			StartLine: uint(start.Row) + 1,
			StartCol:  uint(start.Column) + 1,
			EndLine:   endLine,
			EndCol:    endCol,
		},
	}
}

func endPosition(tsNode sitter.Node) (line, col uint) {
	end := tsNode.EndPoint()

	return uint(end.Row) + 1, uint(end.Column) + 1
}

func sameNode(a, b sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func containsNode(nodes []sitter.Node, target sitter.Node) bool {
	for _, candidate := range nodes {
		if sameNode(candidate, target) {
			return true
		}
	}

	return false
}

// compactSpace removes all whitespace, turning `. . mod` into `..mod`.
func compactSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
