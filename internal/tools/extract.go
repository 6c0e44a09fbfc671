package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptforge/prompt-extract-mcp/internal/extract"
)

func (s *Server) handleExtractFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	relPath := getStringArg(args, "rel_path")
	if relPath == "" {
		return errResult("rel_path is required"), nil
	}

	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	p := extract.New(ctx, s.store, s.root, s.cache, s.opts)
	res, err := p.ExtractFile(relPath)
	if err != nil {
		if extract.IsNoMetadata(err) {
			return errResult(fmt.Sprintf("no metadata found in %s; push it with cache_file_metadata first", relPath)), nil
		}
		return errResult(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	out := map[string]any{
		"rel_path": relPath,
		"result":   res,
	}
	if s.library != nil {
		out["lane_a_stack"] = s.library.Stack(res.LaneA)
		out["lane_b_stack"] = s.library.Stack(res.LaneB)
	}
	return jsonResult(out), nil
}

func (s *Server) handleExtractAll(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	p := extract.New(ctx, s.store, s.root, s.cache, s.opts)
	summary, err := p.Run()
	if err != nil {
		return errResult(fmt.Sprintf("extraction run failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

// ExtractAll runs a full pipeline pass under the extraction lock. The
// watcher uses this as its change callback so manual tool calls and
// auto-sync never interleave.
func (s *Server) ExtractAll(ctx context.Context) error {
	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	p := extract.New(ctx, s.store, s.root, s.cache, s.opts)
	_, err := p.Run()
	return err
}
