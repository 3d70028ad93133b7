package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tender-barbarian/npm-lens/internal/finder"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

func TestFindSymbolHandler(t *testing.T) {
	handler := findSymbolHandler(newTestFinder(t))

	type found struct {
		Name string
		Kind symtab.Kind
	}

	tests := []struct {
		name        string
		args        map[string]any
		expected    []found
		expectedErr string
	}{
		{
			name:     "function",
			args:     map[string]any{"module": "left-pad", "name": "leftPad"},
			expected: []found{{"leftPad", symtab.KindFunction}},
		},
		{
			name:     "class",
			args:     map[string]any{"module": "kitchen-sink", "name": "Greeter"},
			expected: []found{{"Greeter", symtab.KindClass}},
		},
		{
			name:     "namespace from declare module",
			args:     map[string]any{"module": "@types/node", "name": "fs"},
			expected: []found{{"fs", symtab.KindNamespace}},
		},
		{
			name:     "prefix match",
			args:     map[string]any{"module": "kitchen-sink", "name": "gre", "match": "prefix"},
			expected: []found{{"greet", symtab.KindFunction}},
		},
		{
			name:     "contains match with kind filter",
			args:     map[string]any{"module": "kitchen-sink", "name": "e", "match": "contains", "kind": "enum"},
			expected: []found{{"Level", symtab.KindEnum}},
		},
		{
			name:     "kind filter excludes",
			args:     map[string]any{"module": "left-pad", "name": "leftPad", "kind": "class"},
			expected: []found{},
		},
		{
			name:     "nonexistent symbol",
			args:     map[string]any{"module": "left-pad", "name": "NoSuchSymbol"},
			expected: []found{},
		},
		{
			name:        "nonexistent module",
			args:        map[string]any{"module": "nonexistent-pkg-xyz", "name": "x"},
			expectedErr: "not found",
		},
		{
			name:        "bad match mode",
			args:        map[string]any{"module": "left-pad", "name": "x", "match": "fuzzy"},
			expectedErr: "unknown match mode",
		},
		{
			name:        "missing name",
			args:        map[string]any{"module": "left-pad"},
			expectedErr: "invalid argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, handler, tt.args)
			if tt.expectedErr != "" {
				assert.True(t, res.IsError)
				assert.Contains(t, textOf(t, res), tt.expectedErr)
				return
			}
			require.False(t, res.IsError, textOf(t, res))

			var actuals []symtab.Symbol
			require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &actuals))

			got := make([]found, 0, len(actuals))
			for _, a := range actuals {
				got = append(got, found{a.Name, a.Kind})
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetSymbolCodeHandler(t *testing.T) {
	handler := getSymbolCodeHandler(newTestFinder(t))

	tests := []struct {
		name        string
		args        map[string]any
		expectedErr string
		wantStart   int
		wantEnd     int
	}{
		{
			name:      "no padding",
			args:      map[string]any{"module": "left-pad", "file": "index.d.ts", "name": "leftPad", "padding": 0},
			wantStart: 3,
			wantEnd:   7,
		},
		{
			name:      "default padding",
			args:      map[string]any{"module": "left-pad", "file": "index.d.ts", "name": "leftPad"},
			wantStart: 1,
			wantEnd:   9,
		},
		{
			name:      "nested declaration",
			args:      map[string]any{"module": "kitchen-sink", "file": "index.d.ts", "name": "Helper", "padding": 1},
			wantStart: 16,
			wantEnd:   18,
		},
		{
			name:        "unknown symbol",
			args:        map[string]any{"module": "left-pad", "file": "index.d.ts", "name": "rightPad"},
			expectedErr: `symbol "rightPad" not found`,
		},
		{
			name:        "missing file",
			args:        map[string]any{"module": "left-pad", "name": "leftPad"},
			expectedErr: "invalid argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, handler, tt.args)
			if tt.expectedErr != "" {
				assert.True(t, res.IsError)
				assert.Contains(t, textOf(t, res), tt.expectedErr)
				return
			}
			require.False(t, res.IsError, textOf(t, res))

			var actual finder.SymbolCode
			require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &actual))
			assert.Equal(t, tt.args["name"], actual.Symbol.Name)
			assert.Equal(t, tt.wantStart, actual.Code.StartLine)
			assert.Equal(t, tt.wantEnd, actual.Code.EndLine)
		})
	}
}
