package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptforge/prompt-extract-mcp/internal/discover"
)

func (s *Server) handleListInputFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 100)
	if limit > 1000 {
		limit = 1000
	}

	files, err := discover.Discover(ctx, s.root, nil)
	if err != nil {
		return errResult(fmt.Sprintf("scan failed: %v", err)), nil
	}

	hashes, err := s.store.AllInputHashes()
	if err != nil {
		return errResult(fmt.Sprintf("load stored hashes: %v", err)), nil
	}

	total := len(files)
	if len(files) > limit {
		files = files[:limit]
	}

	type fileEntry struct {
		RelPath string `json:"rel_path"`
		Ext     string `json:"ext"`
		Status  string `json:"status"`
	}
	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		status := "pending"
		if _, ok := hashes[f.RelPath]; ok {
			status = "extracted"
		}
		entries = append(entries, fileEntry{RelPath: f.RelPath, Ext: f.Ext, Status: status})
	}

	return jsonResult(map[string]any{
		"total": total,
		"files": entries,
	}), nil
}

func (s *Server) handleCacheFileMetadata(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}
	raw := getStringArg(args, "metadata")
	if raw == "" {
		return errResult("metadata is required"), nil
	}

	if !s.cache.Put(name, []byte(raw)) {
		return errResult("metadata is not a recognizable workflow or API document"), nil
	}

	return jsonResult(map[string]any{
		"name":   name,
		"cached": true,
		"size":   s.cache.Len(),
	}), nil
}
