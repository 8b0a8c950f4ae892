package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmltera/codescanner/internal/finding"
)

var scanFlags struct {
	quiet bool
	json  bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan the workspace and persist findings",
	Long: "Runs one full scan: dependency manifests first, then source files,\n" +
		"one analyzer call per file. Findings are deduplicated against the\n" +
		"session and written to the state DB as they arrive. The optional\n" +
		"path argument overrides --root as the workspace to scan.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.BoolVar(&scanFlags.quiet, "quiet", false, "Suppress the findings table, print only the count")
	f.BoolVar(&scanFlags.json, "json", false, "Write the findings artifact as JSON instead of the table")
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		rootFlags.root = args[0]
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.orch.Scan(cmd.Context()); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	out := cmd.OutOrStdout()
	if scanFlags.json {
		artifact := a.panel.State()
		if artifact.Findings == nil {
			artifact.Findings = []finding.Finding{}
		}
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return fmt.Errorf("encode artifact: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	if scanFlags.quiet {
		fmt.Fprintf(out, "%d finding(s)\n", a.store.Len())
		return nil
	}
	fmt.Fprintln(out, a.panel.Render())
	if n := a.diags.Len(); n > 0 {
		fmt.Fprintf(out, "%d diagnostic(s) from loose-text extraction\n", n)
	}
	return nil
}
