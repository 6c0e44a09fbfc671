package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListExtractions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	extractions, err := s.store.ListExtractions(limit)
	if err != nil {
		return errResult(fmt.Sprintf("list extractions: %v", err)), nil
	}

	count, err := s.store.CountExtractions()
	if err != nil {
		return errResult(fmt.Sprintf("count extractions: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"total":       count,
		"extractions": extractions,
	}), nil
}
