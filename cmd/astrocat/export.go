package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/exchange"
)

var exportFlagSource string

var exportCmd = &cobra.Command{
	Use:   "export [directory]",
	Short: "Write the catalog as JSON documents",
	Long: `Write every reference table and every source to JSON files under the
given directory (default from config). With --source, write one source's
inventory document to the current directory instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, cfg, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		exporter := exchange.NewExporter(d, &exchange.Options{
			ReferenceDir: cfg.Exchange.ReferenceDir,
			SourceDir:    cfg.Exchange.SourceDir,
			Logger:       d.Logger(),
		})

		if exportFlagSource != "" {
			path, err := exporter.ExportSource(ctx, ".", exportFlagSource)
			if err != nil {
				return err
			}
			successColor.Printf("✓ Wrote %s\n", path)
			return nil
		}

		root := cfg.Exchange.Root
		if len(args) == 1 {
			root = args[0]
		}
		if root == "" {
			return fmt.Errorf("no export directory given")
		}

		identities, err := d.Identities(ctx)
		if err != nil {
			return err
		}
		if err := exporter.ExportAll(ctx, root); err != nil {
			return err
		}

		successColor.Printf("✓ Exported %d sources and %d reference tables to %s\n",
			len(identities), len(d.ReferenceTables()), root)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlagSource, "source", "", "export a single source by identity")
}
