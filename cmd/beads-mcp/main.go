// beads-mcp: agentic task tracker and memory system over MCP.
//
// A dependency-aware issue tracker served over the Model Context
// Protocol, for AI coding agents that need durable task state across
// sessions.
//
// Usage:
//
//	beads-mcp serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/HendryAvila/beads-mcp/internal/config"
	beadsserver "github.com/HendryAvila/beads-mcp/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("beads-mcp v%s\n", beadsserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	// All logging goes to stderr: stdout carries the MCP stdio
	// transport and must stay clean.
	log.SetOutput(os.Stderr)

	cfg := config.FromEnv()
	s, cleanup, err := beadsserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	log.Printf("beads-mcp v%s serving (data dir: %s)", beadsserver.Version, cfg.DataDir)
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `beads-mcp v%s — dependency-aware task tracker over MCP

Usage:
  beads-mcp serve    Start the MCP server (stdio transport)

Environment:
  BEADS_DATA_DIR              Data directory (default: ~/.beads-mcp)
  BEADS_ID_PREFIX             Prefix for generated issue ids (default: bd)
  BEADS_READY_LIMIT           Default list_ready result cap (default: 50)
  BEADS_STRICT_EPIC_CLOSURE   Refuse to close epics with open children

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "beads": {
        "command": "beads-mcp",
        "args": ["serve"]
      }
    }
  }
`, beadsserver.Version)
}
