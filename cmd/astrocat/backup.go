package main

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Write a consistent copy of a SQLite catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Backup(ctx, args[0]); err != nil {
			return err
		}
		successColor.Printf("✓ Backed up to %s\n", args[0])
		return nil
	},
}
