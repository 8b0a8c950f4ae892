package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmltera/codescanner/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
	config    string
	db        string
	root      string
}

var rootCmd = &cobra.Command{
	Use:   "codescanner",
	Short: "LLM-backed security scanning for workspace dependencies and source files",
	Long: "Codescanner walks a workspace, sends dependency manifests and source files\n" +
		"to an LLM analyzer, and aggregates the reported vulnerabilities into a\n" +
		"durable finding store.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&rootFlags.config, "config", ".codescanner/config.yaml", "Config file path (YAML or JSON)")
	pf.StringVar(&rootFlags.db, "db", "", "State DB path (overrides config)")
	pf.StringVar(&rootFlags.root, "root", ".", "Workspace root to scan")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
