package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/npm-lens/internal/finder"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// listModulesHandler returns a handler for the list_modules tool.
// It lists installed packages, optionally filtered by a name substring.
func listModulesHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(f.ListModules(req.GetString("root", ""), req.GetString("filter", "")))
	}
}

// moduleSymbols is the get_module_symbols response.
type moduleSymbols struct {
	Module  string          `json:"module"`
	Version string          `json:"version"`
	Total   int             `json:"total"`
	Symbols []symtab.Symbol `json:"symbols"`
}

// getModuleSymbolsHandler returns a handler for the get_module_symbols tool.
// It returns the indexed declarations of a package, optionally narrowed to one
// kind or one file.
func getModuleSymbolsHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module, err := requireString(req, "module")
		if err != nil {
			return result(nil, err)
		}
		kind, err := kindArg(req)
		if err != nil {
			return result(nil, err)
		}
		root := req.GetString("root", "")

		pkg, _, err := f.ResolveAndIndex(ctx, root, module)
		if err != nil {
			return result(nil, err)
		}
		syms, err := f.FindSymbols(ctx, root, pkg.Name, finder.Query{Kind: kind, File: req.GetString("file", "")})
		if err != nil {
			return result(nil, err)
		}
		return jsonResult(moduleSymbols{Module: pkg.Name, Version: pkg.Version, Total: len(syms), Symbols: syms})
	}
}

// readModuleFileHandler returns a handler for the read_module_file tool.
// Without start_line and line_count it returns the whole file.
func readModuleFileHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module, err := requireString(req, "module")
		if err != nil {
			return result(nil, err)
		}
		file, err := requireString(req, "file")
		if err != nil {
			return result(nil, err)
		}
		return result(f.ReadSourceRange(
			req.GetString("root", ""),
			module,
			file,
			req.GetInt("start_line", 0),
			req.GetInt("line_count", 0),
		))
	}
}

// searchModuleHandler returns a handler for the search_module tool.
func searchModuleHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module, err := requireString(req, "module")
		if err != nil {
			return result(nil, err)
		}
		pattern, err := requireString(req, "pattern")
		if err != nil {
			return result(nil, err)
		}
		return result(f.SearchModule(ctx, req.GetString("root", ""), module, pattern, req.GetInt("max_results", 0)))
	}
}
