package main

import (
	"os"

	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory <identity>",
	Short: "Show all data linked to one source",
	Long:  "Print the inventory document for one identity: its primary-table row plus every row in other tables that references it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		doc, err := d.Inventory(ctx, args[0])
		if err != nil {
			return err
		}
		data, err := doc.Encode(true)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}
