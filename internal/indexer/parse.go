package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// ErrInvalidSource is returned for content the parser must not be given.
var ErrInvalidSource = errors.New("invalid source")

// defaultName is used for declarations without an identifier of their own.
const defaultName = "default"

// fileParser extracts symbols from one file at a time. It reuses a single
// tree-sitter parser and is not safe for concurrent use.
type fileParser struct {
	parser *sitter.Parser
}

func newFileParser() *fileParser {
	return &fileParser{parser: sitter.NewParser()}
}

func (fp *fileParser) close() {
	fp.parser.Close()
}

// parse returns the symbols declared in content, in depth-first order.
// rel is the slash-separated path recorded on every symbol.
func (fp *fileParser) parse(ctx context.Context, rel string, content []byte) ([]symtab.Symbol, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidSource, rel)
	}

	if strings.HasSuffix(rel, ".tsx") {
		fp.parser.SetLanguage(tsx.GetLanguage())
	} else {
		fp.parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := fp.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rel, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: %w: empty syntax tree", rel, ErrInvalidSource)
	}

	w := &walker{
		file:    rel,
		content: content,
		lines:   bytes.Split(content, []byte("\n")),
	}
	w.visit(root, "", false, nil)
	return w.symbols, nil
}

// walker performs the depth-first traversal of one syntax tree.
type walker struct {
	file    string
	content []byte
	lines   [][]byte
	symbols []symtab.Symbol
}

// visit records n when it is a declaration and then descends into its children.
// wrap is the outermost export/declare wrapper directly enclosing n, if any.
func (w *walker) visit(n *sitter.Node, parentType string, moduleScope bool, wrap *sitter.Node) {
	nodeType := n.Type()
	if nodeType == "ERROR" || n.IsMissing() {
		return
	}

	shape := Shape{
		Type:        nodeType,
		ParentType:  parentType,
		Named:       n.IsNamed(),
		ModuleScope: moduleScope,
		Global:      nodeType == "ambient_declaration" && hasChildOfType(n, "global"),
	}
	if kind, ok := Classify(shape); ok {
		span := n
		if wrap != nil {
			span = wrap
		}
		w.record(kind, w.nameOf(n, shape), span)
	}

	childScope := opensModuleScope(nodeType, parentType)
	if isWrapper(nodeType) {
		childScope = moduleScope
	}
	var childWrap *sitter.Node
	if isWrapper(nodeType) {
		childWrap = n
		if wrap != nil {
			childWrap = wrap
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		w.visit(child, nodeType, childScope, childWrap)
	}
}

// record appends a symbol spanning node.
func (w *walker) record(kind symtab.Kind, name string, node *sitter.Node) {
	start := int(node.StartPoint().Row) + 1
	end := int(node.EndPoint().Row) + 1
	if end < start {
		end = start
	}
	w.symbols = append(w.symbols, symtab.Symbol{
		Kind:      kind,
		Name:      name,
		File:      w.file,
		StartLine: start,
		EndLine:   end,
		Signature: symtab.Preview(w.line(start)),
	})
}

// line returns the text of 1-based line n without its line terminator.
func (w *walker) line(n int) string {
	if n < 1 || n > len(w.lines) {
		return ""
	}
	return strings.TrimSuffix(string(w.lines[n-1]), "\r")
}

// nameOf derives the display name of a declaration node.
func (w *walker) nameOf(n *sitter.Node, shape Shape) string {
	if shape.Global {
		return "global"
	}
	if shape.Type == "lexical_declaration" || shape.Type == "variable_declaration" {
		return w.declaratorName(n)
	}
	// A dotted namespace name (A.B.C) is kept whole.
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		if name := unquote(nameNode.Content(w.content)); name != "" {
			return name
		}
	}
	return defaultName
}

// declaratorName returns the identifier bound by the first declarator of a variable statement.
func (w *walker) declaratorName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode != nil && nameNode.Type() == "identifier" {
			return nameNode.Content(w.content)
		}
		// Destructuring patterns have no single identifier.
		return defaultName
	}
	return defaultName
}

func hasChildOfType(n *sitter.Node, nodeType string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == nodeType {
			return true
		}
	}
	return false
}

// unquote strips the quotes from string module names such as `declare module "fs"`.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
