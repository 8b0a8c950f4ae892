package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bmltera/codescanner/internal/bus"
	"github.com/bmltera/codescanner/internal/config"
	"github.com/bmltera/codescanner/internal/display"
	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/format"
	"github.com/bmltera/codescanner/internal/state"
	"github.com/bmltera/codescanner/internal/view"
)

var findingsFlags struct {
	risk     string
	asTree   bool
	markdown bool
}

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List findings persisted by the last scan",
	RunE:  runFindings,
}

func init() {
	f := findingsCmd.Flags()
	f.StringVar(&findingsFlags.risk, "risk", "", "Filter by risk score (low, medium, high)")
	f.BoolVar(&findingsFlags.asTree, "tree", false, "Render as an expandable tree instead of a table")
	f.BoolVar(&findingsFlags.markdown, "markdown", false, "Render the table as Markdown")
}

func runFindings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFromPath(rootFlags.config)
	if err != nil {
		return err
	}
	if rootFlags.db != "" {
		cfg.DBPath = rootFlags.db
	}

	kv, err := state.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open state db: %w", err)
	}
	defer kv.Close()

	st, ok, err := state.Load(kv)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	out := cmd.OutOrStdout()
	if !ok || len(st.Findings) == 0 {
		fmt.Fprintln(out, "No findings. Run 'codescanner scan' first.")
		return nil
	}

	findings := st.Findings
	if findingsFlags.risk != "" {
		want := finding.ParseRiskScore(findingsFlags.risk)
		kept := findings[:0:0]
		for _, f := range findings {
			if f.RiskScore == want {
				kept = append(kept, f)
			}
		}
		findings = kept
	}

	if findingsFlags.asTree {
		tree := view.NewTree(stdoutNavigator{})
		tree.OnScanEvent(bus.Event{
			Kind:  bus.ScanningEnded,
			State: bus.NewSnapshot(false, findings),
		})
		fmt.Fprintln(out, tree.Render())
		return nil
	}

	mode := format.ASCII
	if findingsFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("", "Risk", "Vulnerability", "File", "Lines")
	for _, f := range findings {
		tbl.Row(
			display.RiskIcon(f.RiskScore),
			display.Risk(f.RiskScore),
			f.Vulnerability,
			f.Filename,
			joinLines(f.LinesAffected),
		)
	}
	tbl.Footer("", "", "", "", fmt.Sprintf("%d finding(s)", len(findings)))
	fmt.Fprintln(out, tbl.String())
	return nil
}

func joinLines(lines []int) string {
	if len(lines) == 0 {
		return "-"
	}
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ",")
}
