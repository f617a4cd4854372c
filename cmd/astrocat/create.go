package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/catalog"
	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

var (
	createFlagSchema string
	createFlagDrop   bool
	createFlagYes    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create catalog tables from a YAML schema",
	Long:  "Build every table described by the YAML schema file, in foreign-key dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()

		schemaFile := createFlagSchema
		if schemaFile == "" {
			schemaFile = cfg.Catalog.SchemaFile
		}
		if schemaFile == "" {
			return fmt.Errorf("no schema file given (use --schema or set catalog.schema_file)")
		}

		s, err := schema.LoadYAML(schemaFile)
		if err != nil {
			return err
		}
		if err := s.ApplyTypeOverrides(cfg.Catalog.ColumnTypeOverrides); err != nil {
			return err
		}

		if createFlagDrop && !createFlagYes {
			warnColor.Println("--drop deletes every existing table and all its rows.")
			proceed := false
			if err := survey.AskOne(&survey.Confirm{Message: "Continue?", Default: false}, &proceed); err != nil {
				return err
			}
			if !proceed {
				return nil
			}
		}

		conn, err := db.Open(ctx, dbConfig(cfg))
		if err != nil {
			return err
		}
		defer conn.Close()

		err = catalog.Create(ctx, conn, s, catalog.CreateOptions{
			Drop:     createFlagDrop,
			PGSchema: cfg.Database.Schema,
			Logger:   log,
		})
		if err != nil {
			return err
		}

		successColor.Printf("✓ Created %d tables from %s\n", len(s.Tables), schemaFile)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createFlagSchema, "schema", "s", "", "YAML schema file")
	createCmd.Flags().BoolVar(&createFlagDrop, "drop", false, "drop existing tables first")
	createCmd.Flags().BoolVarP(&createFlagYes, "yes", "y", false, "skip confirmation prompts")
}
