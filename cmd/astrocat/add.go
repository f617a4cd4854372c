package main

import (
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <table> <csv-file>",
	Short: "Load rows from a CSV file into a table",
	Long: `Insert the records of a CSV file (header row required) into a table.
Cells are converted to the column types the table declares; empty cells
become NULL. All rows go in together or not at all.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.AddCSV(ctx, args[0], args[1]); err != nil {
			return err
		}
		successColor.Printf("✓ Loaded %s into %s\n", args[1], args[0])
		return nil
	},
}
