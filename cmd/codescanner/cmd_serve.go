package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bmltera/codescanner/internal/logging"
	"github.com/bmltera/codescanner/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio for editor integration",
	Long: `Starts an MCP server over stdin/stdout. Editor hosts connect and drive
scans through the start_scan, get_scan_state and list_findings tools.

The server monitors for parent process death. When the host disconnects or
restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting codescanner MCP server over stdio (parent watchdog active)")
	return mcpserver.NewServer(a.orch, a.store, version).Run(ctx)
}
