// Package config loads astrocat.yml settings with environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the astrocat configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Search   SearchConfig   `mapstructure:"search"`
	Simbad   SimbadConfig   `mapstructure:"simbad"`
}

// DatabaseConfig represents connection configuration
type DatabaseConfig struct {
	URL                string            `mapstructure:"url"`
	Schema             string            `mapstructure:"schema"`
	Params             map[string]string `mapstructure:"params"`
	DisableForeignKeys bool              `mapstructure:"disable_foreign_keys"`
}

// CatalogConfig represents how the catalog tables are organized
type CatalogConfig struct {
	SchemaFile          string            `mapstructure:"schema_file"`
	PrimaryTable        string            `mapstructure:"primary_table"`
	PrimaryKey          string            `mapstructure:"primary_key"`
	ForeignKey          string            `mapstructure:"foreign_key"`
	ReferenceTables     []string          `mapstructure:"reference_tables"`
	InventoryDepth      int               `mapstructure:"inventory_depth"`
	ColumnTypeOverrides map[string]string `mapstructure:"column_type_overrides"`
	RAColumn            string            `mapstructure:"ra_column"`
	DecColumn           string            `mapstructure:"dec_column"`
}

// ExchangeConfig represents where JSON documents live
type ExchangeConfig struct {
	Root         string `mapstructure:"root"`
	ReferenceDir string `mapstructure:"reference_dir"`
	SourceDir    string `mapstructure:"source_dir"`
}

// SearchConfig represents fuzzy search behavior
type SearchConfig struct {
	Tables       map[string][]string `mapstructure:"tables"`
	ResolveNames bool                `mapstructure:"resolve_names"`
}

// SimbadConfig represents the SIMBAD TAP endpoint
type SimbadConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Load reads configuration from astrocat.yml (or the given file), with
// defaults matching the standard catalog layout. A .env file, when present,
// supplies environment variables first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("catalog.primary_table", "Sources")
	v.SetDefault("catalog.primary_key", "source")
	v.SetDefault("catalog.foreign_key", "source")
	v.SetDefault("catalog.reference_tables", []string{"Publications", "Telescopes", "Instruments"})
	v.SetDefault("catalog.inventory_depth", 1)
	v.SetDefault("catalog.ra_column", "ra")
	v.SetDefault("catalog.dec_column", "dec")
	v.SetDefault("exchange.root", "data")
	v.SetDefault("exchange.reference_dir", "reference")
	v.SetDefault("exchange.source_dir", "source")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("astrocat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetDatabaseURL returns the database URL from the environment or the config
func GetDatabaseURL(cfg *Config) string {
	// First check environment variable
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Database.URL
	}
	return ""
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Catalog.InventoryDepth < 0 {
		return fmt.Errorf("catalog.inventory_depth must not be negative, got: %d", cfg.Catalog.InventoryDepth)
	}
	if cfg.Catalog.PrimaryTable == "" {
		return fmt.Errorf("catalog.primary_table must not be empty")
	}
	if cfg.Catalog.PrimaryKey == "" {
		return fmt.Errorf("catalog.primary_key must not be empty")
	}
	return nil
}
