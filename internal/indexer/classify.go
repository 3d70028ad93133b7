package indexer

import "github.com/tender-barbarian/npm-lens/internal/symtab"

// Shape is the parser-independent view of a syntax node that classification needs.
// Any parser producing tree-sitter-typescript node types can fill it in.
type Shape struct {
	Type        string // grammar node type, e.g. "function_declaration"
	ParentType  string
	Named       bool // false for keyword and punctuation tokens
	ModuleScope bool // node is a statement of the program or of a namespace body
	Global      bool // ambient declaration introducing `declare global { ... }`
}

// declarationKinds maps declaration node types to the kind they always produce.
var declarationKinds = map[string]symtab.Kind{
	"function_declaration":           symtab.KindFunction,
	"generator_function_declaration": symtab.KindFunction,
	"function_signature":             symtab.KindFunction,
	"class_declaration":              symtab.KindClass,
	"abstract_class_declaration":     symtab.KindClass,
	"interface_declaration":          symtab.KindInterface,
	"type_alias_declaration":         symtab.KindType,
	"enum_declaration":               symtab.KindEnum,
	"module":                         symtab.KindNamespace,
	"internal_module":                symtab.KindNamespace,
}

// defaultExportKinds covers anonymous `export default` values.
var defaultExportKinds = map[string]symtab.Kind{
	"class":               symtab.KindClass,
	"function":            symtab.KindFunction,
	"function_expression": symtab.KindFunction,
	"arrow_function":      symtab.KindFunction,
}

// Classify maps a node shape to a symbol kind. It reports false for nodes that
// are not declarations; traversal continues into their children either way.
func Classify(s Shape) (symtab.Kind, bool) {
	if !s.Named {
		return "", false
	}
	if k, ok := declarationKinds[s.Type]; ok {
		return k, true
	}
	switch s.Type {
	case "lexical_declaration", "variable_declaration":
		if s.ModuleScope {
			return symtab.KindVariable, true
		}
	case "ambient_declaration":
		if s.Global {
			return symtab.KindNamespace, true
		}
	}
	if s.ParentType == "export_statement" {
		if k, ok := defaultExportKinds[s.Type]; ok {
			return k, true
		}
	}
	return "", false
}

// isWrapper reports whether a node type only decorates the declaration it contains.
// The declaration's recorded span includes its wrappers.
func isWrapper(nodeType string) bool {
	return nodeType == "export_statement" || nodeType == "ambient_declaration"
}

// opensModuleScope reports whether the children of a node of type nodeType, whose
// parent has type parentType, are module-level statements.
func opensModuleScope(nodeType, parentType string) bool {
	if nodeType == "program" {
		return true
	}
	if nodeType != "statement_block" {
		return false
	}
	switch parentType {
	case "module", "internal_module", "ambient_declaration":
		return true
	}
	return false
}
