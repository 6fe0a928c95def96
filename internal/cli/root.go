package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fibertree",
	Short: "Path-oriented decision store",
	Long:  "FiberTree records decision paths as a prefix tree with aggregated outcome statistics. Single Go binary backed by SQLite.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(renderCmd)
}
