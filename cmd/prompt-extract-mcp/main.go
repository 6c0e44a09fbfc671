package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptforge/prompt-extract-mcp/internal/config"
	"github.com/promptforge/prompt-extract-mcp/internal/extract"
	"github.com/promptforge/prompt-extract-mcp/internal/loradir"
	"github.com/promptforge/prompt-extract-mcp/internal/metadata"
	"github.com/promptforge/prompt-extract-mcp/internal/rewriter"
	"github.com/promptforge/prompt-extract-mcp/internal/store"
	"github.com/promptforge/prompt-extract-mcp/internal/tools"
	"github.com/promptforge/prompt-extract-mcp/internal/watcher"
)

var version = "dev"

func main() {
	root := flag.String("root", ".", "input directory to watch and extract from")
	noWatch := flag.Bool("no-watch", false, "disable the auto-sync watcher")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("prompt-extract-mcp", version)
		os.Exit(0)
	}

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		log.Fatalf("resolve root err=%v", err)
	}

	cfg := config.Load(absRoot)

	s, err := store.Open(extract.StoreNameFromPath(absRoot))
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	cache := metadata.NewCache()

	var library *loradir.Library
	if cfg.Library.Dir != "" {
		library, err = loradir.Scan(cfg.Library.Dir)
		if err != nil {
			log.Fatalf("library scan err=%v", err)
		}
		slog.Info("library.loaded", "dir", cfg.Library.Dir, "files", library.Len())
	}

	rw := rewriter.New(cfg.EffectiveBaseURL(), cfg.EffectiveModel(), cfg.Rewriter.APIKey)

	srv := tools.NewServer(s, absRoot, cache, library, rw, cfg.ResolveOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*noWatch {
		w := watcher.New(absRoot, srv.ExtractAll)
		go w.Run(ctx)
	}

	runErr := srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
	s.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}
