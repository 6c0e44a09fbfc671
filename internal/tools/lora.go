package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleMatchLora(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}

	if s.library == nil {
		return errResult("no adapter library configured; set library.dir in .pxconfig"), nil
	}

	file, ok := s.library.Match(name, getStringArg(args, "path_hint"))
	if !ok {
		return jsonResult(map[string]any{
			"name":    name,
			"matched": false,
		}), nil
	}

	return jsonResult(map[string]any{
		"name":      name,
		"matched":   true,
		"file":      file,
		"full_path": s.library.FullPath(file),
	}), nil
}
