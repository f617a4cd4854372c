package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/astrocatdb/astrocat/internal/catalog"
	"github.com/astrocatdb/astrocat/internal/config"
	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/format"
	"github.com/astrocatdb/astrocat/internal/simbad"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// newLogger builds the CLI logger: warnings only by default, everything
// with --verbose.
func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// loadConfig reads the config file named by --config, or the default.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// databaseURL resolves the connection string: the --db flag beats the
// DATABASE_URL environment variable, which beats the config file.
func databaseURL(cfg *config.Config) string {
	if flagDBURL != "" {
		return flagDBURL
	}
	return config.GetDatabaseURL(cfg)
}

// dbConfig maps the loaded configuration to connection settings.
func dbConfig(cfg *config.Config) db.Config {
	return db.Config{
		URL:                databaseURL(cfg),
		Schema:             cfg.Database.Schema,
		Params:             cfg.Database.Params,
		DisableForeignKeys: cfg.Database.DisableForeignKeys,
	}
}

// catalogOptions maps the loaded configuration to catalog options.
func catalogOptions(cfg *config.Config, log *zap.Logger) catalog.Options {
	opts := catalog.Options{
		ReferenceTables:     cfg.Catalog.ReferenceTables,
		PrimaryTable:        cfg.Catalog.PrimaryTable,
		PrimaryKey:          cfg.Catalog.PrimaryKey,
		ForeignKey:          cfg.Catalog.ForeignKey,
		ColumnTypeOverrides: cfg.Catalog.ColumnTypeOverrides,
		InventoryDepth:      cfg.Catalog.InventoryDepth,
		SearchColumns:       cfg.Search.Tables,
		RAColumn:            cfg.Catalog.RAColumn,
		DecColumn:           cfg.Catalog.DecColumn,
		Logger:              log,
	}
	// The client is lazy, so wiring it costs nothing unless a search asks
	// for name resolution.
	opts.Resolver = simbad.NewClient(cfg.Simbad.BaseURL, log)
	return opts
}

// openCatalog connects to the configured database and reflects its schema.
// The caller owns the returned handle and must Close it.
func openCatalog(ctx context.Context) (*catalog.Database, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger()

	d, err := catalog.Connect(ctx, dbConfig(cfg), catalogOptions(cfg, log))
	if err != nil {
		return nil, nil, err
	}
	return d, cfg, nil
}

// printRows renders table rows to stdout in the chosen format, columns in
// the table's declared order.
func printRows(d *catalog.Database, table string, rows []map[string]interface{}, formatName string) error {
	f, err := format.ParseFormat(formatName)
	if err != nil {
		return err
	}
	t, err := d.Table(table)
	if err != nil {
		return err
	}
	return format.NewWriter(f, os.Stdout).WriteRows(t.ColumnNames(), rows)
}
