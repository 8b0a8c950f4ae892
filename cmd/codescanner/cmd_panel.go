package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmltera/codescanner/internal/config"
	"github.com/bmltera/codescanner/internal/state"
	"github.com/bmltera/codescanner/internal/view"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Show the findings panel rehydrated from the state DB",
	RunE:  runPanel,
}

func runPanel(cmd *cobra.Command, _ []string) error {
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

	panel := view.NewPanel(kv)
	if err := panel.Init(); err != nil {
		return fmt.Errorf("rehydrate panel: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), panel.Render())
	return nil
}
