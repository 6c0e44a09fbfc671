package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptforge/prompt-extract-mcp/internal/rewriter"
)

func (s *Server) handleRewritePrompt(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	prompt := getStringArg(args, "prompt")
	if prompt == "" {
		return errResult("prompt is required"), nil
	}

	if s.rewriter == nil {
		return errResult("no rewriter endpoint configured; set rewriter.base_url in .pxconfig"), nil
	}

	opts := rewriter.Options{
		SystemPrompt: getStringArg(args, "system_prompt"),
		Temperature:  float32(getFloatArg(args, "temperature")),
		TopP:         float32(getFloatArg(args, "top_p")),
		MaxTokens:    getIntArg(args, "max_tokens", 0),
		Seed:         getIntArg(args, "seed", 0),
	}

	out, err := s.rewriter.Rewrite(ctx, prompt, opts)
	if err != nil {
		return errResult(fmt.Sprintf("rewrite failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"prompt":    prompt,
		"rewritten": out,
	}), nil
}
