package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	flagConfig  string
	flagDBURL   string
	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "astrocat",
		Short: "Astronomical catalog database tooling",
		Long: `Astrocat manages astronomical catalog databases: it creates them from
YAML schema descriptions, exports them to version-controllable JSON documents,
rebuilds them from those documents, and searches them by name, coordinates,
or raw SQL.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default astrocat.yml)")
	rootCmd.PersistentFlags().StringVar(&flagDBURL, "db", "", "database URL (overrides config and DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(regionCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(backupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
