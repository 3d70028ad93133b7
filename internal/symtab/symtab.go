package symtab

import "strings"

// Package identifies an installed npm package found in a dependency directory.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dir     string `json:"dir"`
}

// UnknownVersion is reported when a manifest declares no version.
const UnknownVersion = "unknown"

// Kind classifies a top-level declaration.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindEnum      Kind = "enum"
	KindNamespace Kind = "namespace"
	KindVariable  Kind = "variable"
)

// Kinds lists every symbol kind in declaration order.
var Kinds = []Kind{
	KindFunction,
	KindClass,
	KindInterface,
	KindType,
	KindEnum,
	KindNamespace,
	KindVariable,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts user input into a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// MaxSignatureLen bounds Symbol.Signature, counted in runes.
const MaxSignatureLen = 200

// Symbol describes a declaration discovered in a package's source files.
// File is slash-separated and relative to the package directory.
type Symbol struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Signature string `json:"signature"`
}

// Lines returns the number of source lines the symbol spans.
func (s Symbol) Lines() int {
	return s.EndLine - s.StartLine + 1
}

// Preview trims line and truncates it to MaxSignatureLen runes.
func Preview(line string) string {
	line = strings.TrimSpace(line)
	if len(line) <= MaxSignatureLen {
		return line
	}
	runes := []rune(line)
	if len(runes) <= MaxSignatureLen {
		return line
	}
	return string(runes[:MaxSignatureLen])
}
