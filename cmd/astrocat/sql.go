package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/format"
)

var sqlFlagFormat string

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query",
	Long:  "Run a query against the catalog and print the result set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		rows, columns, err := d.SQL(ctx, args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			infoColor.Println("No rows")
			return nil
		}

		f, err := format.ParseFormat(sqlFlagFormat)
		if err != nil {
			return err
		}
		return format.NewWriter(f, os.Stdout).WriteRows(columns, rows)
	},
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlFlagFormat, "format", "f", "table", "output format (table, markdown, csv, json)")
}
