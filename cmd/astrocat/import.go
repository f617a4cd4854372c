package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/exchange"
)

var importFlagYes bool

var importCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Rebuild the catalog from JSON documents",
	Long: `Clear every table, then load reference-table files and source documents
from the given directory (default from config). The database afterward holds
exactly what the files describe.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, cfg, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		root := cfg.Exchange.Root
		if len(args) == 1 {
			root = args[0]
		}
		if root == "" {
			return fmt.Errorf("no import directory given")
		}

		if !importFlagYes {
			warnColor.Println("Importing clears every table before loading.")
			proceed := false
			if err := survey.AskOne(&survey.Confirm{Message: "Continue?", Default: false}, &proceed); err != nil {
				return err
			}
			if !proceed {
				return nil
			}
		}

		importer := exchange.NewImporter(d, &exchange.Options{
			ReferenceDir: cfg.Exchange.ReferenceDir,
			SourceDir:    cfg.Exchange.SourceDir,
			Logger:       d.Logger(),
		})
		if err := importer.LoadDatabase(ctx, root); err != nil {
			return err
		}

		successColor.Printf("✓ Loaded catalog from %s\n", root)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVarP(&importFlagYes, "yes", "y", false, "skip confirmation prompts")
}
