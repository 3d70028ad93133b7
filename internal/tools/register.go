package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/npm-lens/internal/finder"
)

const rootDescription = "Project root containing package.json and node_modules (default: auto-detected)"

// Register wires all package-inspection MCP tools to s.
// Each tool delegates to f for resolving and indexing installed packages.
func Register(s *server.MCPServer, f *finder.Finder) {
	s.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("Lists installed npm packages with their versions."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("filter", mcp.Description("Optional substring filter on package name")),
	), withLengthCheck(listModulesHandler(f)))

	s.AddTool(mcp.NewTool("get_module_symbols",
		mcp.WithDescription("Returns the declarations of an installed package: functions, classes, interfaces, types, enums, namespaces and variables."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("module", mcp.Required(), mcp.Description("Package name, e.g. react or @types/node. Partial names match the first package containing them")),
		mcp.WithString("kind", mcp.Description("Filter by kind: function, class, interface, type, enum, namespace, variable (empty = all)")),
		mcp.WithString("file", mcp.Description("Only symbols declared in this package-relative file")),
	), withLengthCheck(getModuleSymbolsHandler(f)))

	s.AddTool(mcp.NewTool("find_symbol",
		mcp.WithDescription("Searches an installed package for a declaration by name."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("module", mcp.Required(), mcp.Description("Package name")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name")),
		mcp.WithString("kind", mcp.Description("Filter by kind: function, class, interface, type, enum, namespace, variable (empty = all)")),
		mcp.WithString("match", mcp.Description(`Match mode: "exact" (default), "prefix", or "contains"`)),
	), withLengthCheck(findSymbolHandler(f)))

	s.AddTool(mcp.NewTool("get_symbol_code",
		mcp.WithDescription("Returns the source code of a declaration with surrounding context lines."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("module", mcp.Required(), mcp.Description("Package name")),
		mcp.WithString("file", mcp.Required(), mcp.Description("Package-relative file the symbol is declared in")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name")),
		mcp.WithNumber("padding", mcp.Description("Context lines before and after the declaration (default: 10)")),
	), withLengthCheck(getSymbolCodeHandler(f)))

	s.AddTool(mcp.NewTool("read_module_file",
		mcp.WithDescription("Reads lines from a file inside an installed package."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("module", mcp.Required(), mcp.Description("Package name")),
		mcp.WithString("file", mcp.Required(), mcp.Description("Package-relative file path")),
		mcp.WithNumber("start_line", mcp.Description("First line to read, 1-based (default: 1)")),
		mcp.WithNumber("line_count", mcp.Description("Number of lines to read, at most 2000 (default: whole file)")),
	), withLengthCheck(readModuleFileHandler(f)))

	s.AddTool(mcp.NewTool("search_module",
		mcp.WithDescription("Searches the files of an installed package with a regular expression."),
		mcp.WithString("root", mcp.Description(rootDescription)),
		mcp.WithString("module", mcp.Required(), mcp.Description("Package name")),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("RE2 regular expression matched against each line")),
		mcp.WithNumber("max_results", mcp.Description("Maximum matching lines to return (default: 100)")),
	), withLengthCheck(searchModuleHandler(f)))
}
