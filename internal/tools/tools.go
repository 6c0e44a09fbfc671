// Package tools exposes prompt extraction over MCP.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptforge/prompt-extract-mcp/internal/loradir"
	"github.com/promptforge/prompt-extract-mcp/internal/metadata"
	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
	"github.com/promptforge/prompt-extract-mcp/internal/rewriter"
	"github.com/promptforge/prompt-extract-mcp/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	root     string
	cache    *metadata.Cache
	library  *loradir.Library
	rewriter *rewriter.Rewriter
	opts     resolve.Options

	// Serializes extraction runs against the auto-sync watcher.
	extractMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
// library and rw may be nil when no adapter directory or rewriter
// endpoint is configured; the corresponding tools report that.
func NewServer(s *store.Store, root string, cache *metadata.Cache, library *loradir.Library, rw *rewriter.Rewriter, opts resolve.Options) *Server {
	srv := &Server{
		store:    s,
		root:     root,
		cache:    cache,
		library:  library,
		rewriter: rw,
		opts:     opts,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "prompt-extract-mcp",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. extract_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_file",
		Description: "Extract generation parameters from one input file. Resolves the embedded workflow graph into positive/negative prompt text and two ordered adapter lanes, matches adapters against the configured library, stores the result, and returns it. Re-extracts even if the stored hash is unchanged.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"rel_path": {
					"type": "string",
					"description": "Path of the input file, relative to the input root (e.g. 'renders/cat_0001.png')"
				}
			},
			"required": ["rel_path"]
		}`),
	}, s.handleExtractFile)

	// 2. extract_all
	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_all",
		Description: "Scan the input root and extract generation parameters from every discoverable file. Unchanged files (by content hash) are skipped, deleted files are pruned from the store. Returns a run summary with total/extracted/skipped/failed/removed counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleExtractAll)

	// 3. list_input_files
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_input_files",
		Description: "List discoverable files under the input root with their extension and extraction status (extracted or pending). Content changes are picked up by extract_all, which re-extracts on hash mismatch.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Max files to return (default 100, max 1000)"
				}
			}
		}`),
	}, s.handleListInputFiles)

	// 4. cache_file_metadata
	s.mcp.AddTool(&mcp.Tool{
		Name:        "cache_file_metadata",
		Description: "Push workflow metadata into the in-memory cache, keyed by file base name. Used for formats whose metadata cannot be read from the file itself (video containers, stripped images). Accepts a raw workflow document, an API-format document, or a {prompt, workflow} wrapper.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "File base name the metadata belongs to (e.g. 'clip_0001.mp4')"
				},
				"metadata": {
					"type": "string",
					"description": "Metadata document as a JSON string"
				}
			},
			"required": ["name", "metadata"]
		}`),
	}, s.handleCacheFileMetadata)

	// 5. match_lora
	s.mcp.AddTool(&mcp.Tool{
		Name:        "match_lora",
		Description: "Match an adapter name against the configured adapter library. Tries exact path, exact base name, substring, then fuzzy token-set matching that survives renames and re-uploads. Returns the matched library file or reports no match.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Adapter name to match (extension optional)"
				},
				"path_hint": {
					"type": "string",
					"description": "Original file reference from the workflow, if known"
				}
			},
			"required": ["name"]
		}`),
	}, s.handleMatchLora)

	// 6. rewrite_prompt
	s.mcp.AddTool(&mcp.Tool{
		Name:        "rewrite_prompt",
		Description: "Embellish a prompt through the configured OpenAI-compatible endpoint. Preserves the core subject and intent while expanding visual detail. Identical prompt+options pairs return a cached result.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt": {
					"type": "string",
					"description": "Prompt text to embellish"
				},
				"system_prompt": {
					"type": "string",
					"description": "Override the default embellishment persona"
				},
				"temperature": {
					"type": "number",
					"description": "Sampling temperature (endpoint default if omitted)"
				},
				"top_p": {
					"type": "number",
					"description": "Nucleus sampling cutoff"
				},
				"max_tokens": {
					"type": "integer",
					"description": "Maximum tokens to generate"
				},
				"seed": {
					"type": "integer",
					"description": "Seed for reproducible generation"
				}
			},
			"required": ["prompt"]
		}`),
	}, s.handleRewritePrompt)

	// 7. list_extractions
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_extractions",
		Description: "List stored extraction results, most recent first. Each entry carries the input path, extraction timestamp, prompt text, and both adapter lanes.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Max results (default 50, max 500)"
				}
			}
		}`),
	}, s.handleListExtractions)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params.Arguments == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getFloatArg extracts a float argument, zero when absent.
func getFloatArg(args map[string]any, key string) float64 {
	v, ok := args[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}
