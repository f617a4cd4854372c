package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/astrocatdb/astrocat/internal/catalog"
)

var (
	regionFlagRadius float64
	regionFlagTable  string
	regionFlagFormat string
)

var regionCmd = &cobra.Command{
	Use:   "region <ra> <dec>",
	Short: "Find sources near a sky position",
	Long:  "Cone search around the given coordinates (degrees), radius in arcseconds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ra, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid right ascension %q: %w", args[0], err)
		}
		dec, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid declination %q: %w", args[1], err)
		}

		d, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		rows, err := d.QueryRegion(ctx, ra, dec, regionFlagRadius, &catalog.RegionOptions{
			OutputTable: regionFlagTable,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			infoColor.Printf("No sources within %.1f arcsec of (%.6f, %.6f)\n", regionFlagRadius, ra, dec)
			return nil
		}

		table := regionFlagTable
		if table == "" {
			table = d.Options().PrimaryTable
		}
		return printRows(d, table, rows, regionFlagFormat)
	},
}

func init() {
	regionCmd.Flags().Float64VarP(&regionFlagRadius, "radius", "r", catalog.DefaultRadiusArcsec, "search radius in arcseconds")
	regionCmd.Flags().StringVarP(&regionFlagTable, "table", "t", "", "table to return rows from (default the primary table)")
	regionCmd.Flags().StringVarP(&regionFlagFormat, "format", "f", "table", "output format (table, markdown, csv, json)")
}
