// workflow-debug resolves a single input file and dumps the result as
// JSON. Useful for checking what the resolver sees in a workflow
// without going through the MCP server.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/promptforge/prompt-extract-mcp/internal/extract"
	"github.com/promptforge/prompt-extract-mcp/internal/metadata"
	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: workflow-debug <file.png|file.json> ...")
		os.Exit(1)
	}

	exitCode := 0
	for _, path := range os.Args[1:] {
		if len(os.Args) > 2 {
			fmt.Printf("=== %s ===\n", path)
		}
		if err := dump(path); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func dump(path string) error {
	payload, err := metadata.FromFile(path, nil)
	if err != nil {
		return err
	}

	switch {
	case payload.Workflow != nil:
		fmt.Println("source: workflow document")
	case payload.API != nil:
		fmt.Println("source: api document")
	case payload.PlainText != "":
		fmt.Println("source: plain text")
	}

	res := extract.ResolvePayload(payload, resolve.DefaultOptions())
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
