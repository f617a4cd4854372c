package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/format"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the connected database's schema",
	Long:  "Reflect tables, columns, and foreign keys from the live database and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		return format.SchemaText(os.Stdout, d.Schema())
	},
}
