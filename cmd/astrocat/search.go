package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/catalog"
)

var (
	searchFlagTable    string
	searchFlagFormat   string
	searchFlagExact    bool
	searchFlagResolve  bool
	searchFlagFullText bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find sources by name",
	Long: `Match the term against source names and alternate designations and print
the matching rows. With --full-text, scan every string column of every table
instead and group results by table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		term := args[0]

		d, cfg, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		if searchFlagFullText {
			results, err := d.SearchString(ctx, term)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				infoColor.Printf("No matches for %q\n", term)
				return nil
			}
			tables := make([]string, 0, len(results))
			for table := range results {
				tables = append(tables, table)
			}
			sort.Strings(tables)
			for _, table := range tables {
				fmt.Printf("%s:\n", table)
				if err := printRows(d, table, results[table], searchFlagFormat); err != nil {
					return err
				}
				fmt.Println()
			}
			return nil
		}

		opts := &catalog.SearchOptions{
			OutputTable:  searchFlagTable,
			Exact:        searchFlagExact,
			ResolveNames: searchFlagResolve || cfg.Search.ResolveNames,
		}
		rows, err := d.SearchObject(ctx, term, opts)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			infoColor.Printf("No matches for %q\n", term)
			return nil
		}

		table := searchFlagTable
		if table == "" {
			table = d.Options().PrimaryTable
		}
		return printRows(d, table, rows, searchFlagFormat)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchFlagTable, "table", "t", "", "table to return rows from (default the primary table)")
	searchCmd.Flags().StringVarP(&searchFlagFormat, "format", "f", "table", "output format (table, markdown, csv, json)")
	searchCmd.Flags().BoolVar(&searchFlagExact, "exact", false, "match the term exactly instead of as a substring")
	searchCmd.Flags().BoolVar(&searchFlagResolve, "resolve", false, "expand the term with SIMBAD identifiers")
	searchCmd.Flags().BoolVar(&searchFlagFullText, "full-text", false, "search every string column of every table")
}
