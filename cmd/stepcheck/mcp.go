package main

import (
	"os"
	"os/signal"

	"github.com/felixgeelhaar/mcp-go"
	mcptools "github.com/felixgeelhaar/stepcheck/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server for AI agent integration.

Available tools:
  - stepcheck_steps       List the steps and their required fields
  - stepcheck_policy      Show the upload policy and verification endpoint
  - stepcheck_check_step  Attach images to a step and optionally validate them

Examples:
  stepcheck mcp                          # Start stdio MCP server
  stepcheck mcp --http :8080             # Start HTTP MCP server
  stepcheck mcp --root /srv/evidence     # Confine image paths to a directory`,
	RunE: runMCP,
}

var (
	mcpHTTP string
	mcpRoot string
)

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "Start HTTP server on address (e.g., :8080)")
	mcpCmd.Flags().StringVar(&mcpRoot, "root", "", "Only read images below this directory")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	// stdout carries the protocol, so logs go to stderr
	sc, err := loadApp(cmd, os.Stderr)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "stepcheck",
		Version: version,
	})

	mcptools.RegisterAll(srv, sc, mcptools.Options{
		Root: mcpRoot,
		Version: mcptools.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		},
	})

	if mcpHTTP != "" {
		return mcp.ServeHTTP(ctx, srv, mcpHTTP)
	}
	return mcp.ServeStdio(ctx, srv)
}
