// ado-mcp: Azure DevOps work item tracking MCP server.
//
// Exposes work item search (plain English to WIQL), CRUD, comments,
// history and sprint reports as MCP tools over stdio.
//
// Usage:
//
//	ado-mcp serve              # Start MCP server (stdio transport)
//	ado-mcp serve --config F   # Use an alternate config file
package main

import (
	"fmt"
	"os"

	adoserver "github.com/HendryAvila/ado-mcp/internal/server"
	"github.com/HendryAvila/ado-mcp/internal/config"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("ado-mcp v%s\n", adoserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	configPath := config.DefaultConfigPath()
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	s, cleanup, err := adoserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ado-mcp v%s — Azure DevOps MCP Server

Usage:
  ado-mcp serve              Start the MCP server (stdio transport)
  ado-mcp serve --config F   Use an alternate config file

Configuration:
  File: ~/.config/ado-mcp/config.yaml
    organization: myorg            # or a full https:// URL
    pat: <personal access token>
    project: MyProject             # optional default project

  Environment overrides: ADO_ORG, ADO_PAT, ADO_PROJECT

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "ado": {
        "command": "ado-mcp",
        "args": ["serve"]
      }
    }
  }
`, adoserver.Version)
}
