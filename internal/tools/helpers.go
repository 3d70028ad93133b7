package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/npm-lens/internal/finder"
	"github.com/tender-barbarian/npm-lens/internal/search"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// maxInputLen bounds every string argument a tool accepts.
const maxInputLen = 4096

// errInvalidArgument marks tool input that is well-formed JSON but not acceptable.
var errInvalidArgument = errors.New("invalid argument")

// jsonResult serialises v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// result turns a finder outcome into a tool result. Not-found and malformed input
// become error results the caller can read; anything else is a handler failure.
func result(v any, err error) (*mcp.CallToolResult, error) {
	if err == nil {
		return jsonResult(v)
	}
	if isUserError(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func isUserError(err error) bool {
	return finder.IsNotFound(err) ||
		errors.Is(err, search.ErrInvalidPattern) ||
		errors.Is(err, errInvalidArgument)
}

// withLengthCheck rejects calls whose string arguments exceed maxInputLen.
func withLengthCheck(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		for name, v := range req.GetArguments() {
			if s, ok := v.(string); ok && len(s) > maxInputLen {
				return mcp.NewToolResultError(fmt.Sprintf("argument %q exceeds maximum length of %d bytes", name, maxInputLen)), nil
			}
		}
		return next(ctx, req)
	}
}

// requireString reads a required string argument; a missing one is an invalid argument.
func requireString(req mcp.CallToolRequest, name string) (string, error) {
	s, err := req.RequireString(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidArgument, err)
	}
	return s, nil
}

// kindArg parses the optional kind argument.
func kindArg(req mcp.CallToolRequest) (symtab.Kind, error) {
	raw := req.GetString("kind", "")
	if raw == "" {
		return "", nil
	}
	kind, ok := symtab.ParseKind(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q, want one of %v", errInvalidArgument, raw, symtab.Kinds)
	}
	return kind, nil
}

// matchArg parses the optional match argument.
func matchArg(req mcp.CallToolRequest) (finder.MatchMode, error) {
	raw := req.GetString("match", "")
	mode, ok := finder.ParseMatchMode(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown match mode %q, want exact, prefix or contains", errInvalidArgument, raw)
	}
	return mode, nil
}
