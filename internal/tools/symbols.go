package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/npm-lens/internal/finder"
)

// findSymbolHandler returns a handler for the find_symbol tool.
// It searches one package for declarations by name, with an optional kind filter
// and match mode.
func findSymbolHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module, err := requireString(req, "module")
		if err != nil {
			return result(nil, err)
		}
		name, err := requireString(req, "name")
		if err != nil {
			return result(nil, err)
		}
		kind, err := kindArg(req)
		if err != nil {
			return result(nil, err)
		}
		match, err := matchArg(req)
		if err != nil {
			return result(nil, err)
		}

		return result(f.FindSymbols(ctx, req.GetString("root", ""), module, finder.Query{
			Name:  name,
			Match: match,
			Kind:  kind,
		}))
	}
}

// getSymbolCodeHandler returns a handler for the get_symbol_code tool.
// It returns the source of the named declaration in file plus padding lines of
// context on each side.
func getSymbolCodeHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module, err := requireString(req, "module")
		if err != nil {
			return result(nil, err)
		}
		file, err := requireString(req, "file")
		if err != nil {
			return result(nil, err)
		}
		name, err := requireString(req, "name")
		if err != nil {
			return result(nil, err)
		}
		padding := req.GetInt("padding", f.Padding())

		return result(f.GetSymbolCode(ctx, req.GetString("root", ""), module, file, name, padding))
	}
}
