package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "poswatch",
	Short: "Watch a trading-position page and alert on changes",
	Long: `Poswatch polls a trading-position page, detects meaningful changes, and
fans alerts out to independent channels while keeping an audit trail.

It provides tools for:
  - Polling a positions page on a fixed interval with retry on failures
  - Exact change detection over the normalized position list
  - Unrealized P&L delta extraction between observations
  - Desktop, sound, popup, and terminal-table alert channels
  - An append-only JSONL change log plus a SQLite event journal
  - Per-change snapshot artifacts and a latest-state HTML view

Complete documentation is available at https://github.com/rustyeddy/poswatch`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
