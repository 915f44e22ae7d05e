package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docapi/internal/config"
	"github.com/kailas-cloud/docapi/internal/version"
)

var env string

var rootCmd = &cobra.Command{
	Use:   "docapi",
	Short: "Document filter, delete and CSV ingestion API",
	Long: `docapi serves an HTTP API over a document store: filter queries, filtered
deletes, and bulk ingestion of startup CSV files split into sentence-aware chunks.

The same operations are available offline through the ingest, list and clear commands.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docapi %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Config environment (loads config/<env>.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
