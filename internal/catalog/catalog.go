// Package catalog implements the astronomical database handle and its
// operations: identity inventories, fuzzy and positional searches, bulk row
// ingest, schema creation and copying, and raw queries. The handle binds a
// connection, the schema descriptors, and the catalog conventions (which
// tables are reference tables, which table holds the identities, which
// column links dependents back to them).
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

// NameResolver expands an object designation into alternate identifiers,
// typically by asking an external name service.
type NameResolver interface {
	AlternateIDs(ctx context.Context, name string) ([]string, error)
}

// Options are the catalog conventions for a database.
type Options struct {
	// ReferenceTables hold shared lookups (publications, telescopes) rather
	// than per-object data. They are exported whole and never swept into
	// inventories.
	ReferenceTables []string

	// PrimaryTable is the identity table; PrimaryKey is its identity column.
	PrimaryTable string
	PrimaryKey   string

	// ForeignKey is the column dependent tables carry to link rows back to
	// an identity. It is stripped from exported inventories and re-injected
	// on import.
	ForeignKey string

	// ColumnTypeOverrides rewrites column types after schema load or
	// reflection, keyed "Table.column". The usual use is marking spectrum
	// reference columns.
	ColumnTypeOverrides map[string]string

	// InventoryDepth is how many foreign-key hops an inventory follows out
	// from the identity table. Depth 1 collects the tables that reference
	// it directly.
	InventoryDepth int

	// SearchColumns maps table name to the columns fuzzy object search
	// scans. The identity linkage is the primary key for the primary table
	// and the foreign key elsewhere.
	SearchColumns map[string][]string

	// RAColumn and DecColumn are the coordinate columns used by region
	// queries, in degrees.
	RAColumn  string
	DecColumn string

	// Resolver, when set, lets SearchObject expand designations into
	// alternate identifiers first.
	Resolver NameResolver

	// Logger receives progress and diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if len(o.ReferenceTables) == 0 {
		o.ReferenceTables = []string{"Publications", "Telescopes", "Instruments"}
	}
	if o.PrimaryTable == "" {
		o.PrimaryTable = "Sources"
	}
	if o.PrimaryKey == "" {
		o.PrimaryKey = "source"
	}
	if o.ForeignKey == "" {
		o.ForeignKey = "source"
	}
	if o.InventoryDepth <= 0 {
		o.InventoryDepth = 1
	}
	if len(o.SearchColumns) == 0 {
		o.SearchColumns = map[string][]string{
			"Sources": {"source", "shortname"},
			"Names":   {"other_name"},
		}
	}
	if o.RAColumn == "" {
		o.RAColumn = "ra"
	}
	if o.DecColumn == "" {
		o.DecColumn = "dec"
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Database is the catalog handle: one connection, one schema, one set of
// conventions.
type Database struct {
	conn   *db.Conn
	schema *schema.Schema
	graph  *schema.Graph
	tables map[string]*schema.Table
	opts   Options
	log    *zap.Logger
	txm    *db.TxManager
}

// New binds a connection and schema descriptors into a catalog handle.
func New(conn *db.Conn, s *schema.Schema, opts Options) (*Database, error) {
	opts = opts.withDefaults()

	if len(opts.ColumnTypeOverrides) > 0 {
		if err := s.ApplyTypeOverrides(opts.ColumnTypeOverrides); err != nil {
			return nil, err
		}
	}

	primary, ok := s.Table(opts.PrimaryTable)
	if !ok {
		return nil, fmt.Errorf("%w: primary table %s is not in the schema", db.ErrConfiguration, opts.PrimaryTable)
	}
	if !primary.HasColumn(opts.PrimaryKey) {
		return nil, fmt.Errorf("%w: primary table %s has no column %s", db.ErrConfiguration, opts.PrimaryTable, opts.PrimaryKey)
	}

	tables := make(map[string]*schema.Table, len(s.Tables))
	for i := range s.Tables {
		tables[s.Tables[i].Name] = &s.Tables[i]
	}

	return &Database{
		conn:   conn,
		schema: s,
		graph:  schema.NewGraph(s),
		tables: tables,
		opts:   opts,
		log:    opts.Logger,
		txm:    db.NewTxManager(conn.DB),
	}, nil
}

// Connect opens a connection and reflects the schema from the live database.
func Connect(ctx context.Context, cfg db.Config, opts Options) (*Database, error) {
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := schema.Reflect(ctx, conn.DB, conn.Dialect())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reflecting schema: %w", err)
	}
	d, err := New(conn, s, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying connection handle.
func (d *Database) Conn() *db.Conn {
	return d.conn
}

// Schema returns the schema descriptors.
func (d *Database) Schema() *schema.Schema {
	return d.schema
}

// Graph returns the foreign-key dependency graph.
func (d *Database) Graph() *schema.Graph {
	return d.graph
}

// Options returns the catalog conventions.
func (d *Database) Options() Options {
	return d.opts
}

// Logger returns the handle's logger.
func (d *Database) Logger() *zap.Logger {
	return d.log
}

// Table looks up a table descriptor. Unknown names get close-match
// suggestions in the error, since catalog table names are easy to mistype.
func (d *Database) Table(name string) (*schema.Table, error) {
	t, ok := d.tables[name]
	if !ok {
		if similar := suggestTables(name, d.schema.TableNames()); len(similar) > 0 {
			return nil, fmt.Errorf("%w: unknown table %s (did you mean %s?)",
				db.ErrConfiguration, name, strings.Join(similar, ", "))
		}
		return nil, fmt.Errorf("%w: unknown table %s", db.ErrConfiguration, name)
	}
	return t, nil
}

// IsReferenceTable reports whether the table is classified as reference data.
func (d *Database) IsReferenceTable(name string) bool {
	for _, rt := range d.opts.ReferenceTables {
		if rt == name {
			return true
		}
	}
	return false
}

// ReferenceTables returns the configured reference tables that exist in the
// schema, in configuration order.
func (d *Database) ReferenceTables() []string {
	var out []string
	for _, rt := range d.opts.ReferenceTables {
		if _, ok := d.tables[rt]; ok {
			out = append(out, rt)
		}
	}
	return out
}

// WithTransaction runs fn inside one transaction.
func (d *Database) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return d.txm.WithTransaction(ctx, fn)
}
