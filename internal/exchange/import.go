package exchange

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/catalog"
	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
	"github.com/astrocatdb/astrocat/internal/values"
)

// Importer rebuilds a catalog from JSON documents.
type Importer struct {
	db   *catalog.Database
	opts *Options
	log  *zap.Logger
}

// NewImporter creates an importer over an open catalog.
func NewImporter(db *catalog.Database, opts *Options) *Importer {
	o := opts.withDefaults()
	return &Importer{db: db, opts: o, log: o.Logger}
}

// LoadDatabase clears every table and loads the documents under root,
// reference tables first, then one document per identity. Any integrity
// violation stops the load where it happened; the database then holds only
// what was committed before the offending document. Older exports put every
// file directly in root; when the subdirectories are missing, root itself is
// read instead.
func (im *Importer) LoadDatabase(ctx context.Context, root string) error {
	if err := im.db.Clear(ctx); err != nil {
		return err
	}

	refDir, flat := filepath.Join(root, im.opts.ReferenceDir), false
	if info, err := os.Stat(refDir); err != nil || !info.IsDir() {
		refDir, flat = root, true
	}
	srcDir := filepath.Join(root, im.opts.SourceDir)
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		srcDir = root
	}

	if err := im.loadReferenceFiles(ctx, refDir, flat); err != nil {
		return err
	}
	return im.loadSourceFiles(ctx, srcDir)
}

// loadReferenceFiles loads every reference-table file in dir. In flat mode
// dir also holds source documents, so names matching no reference table are
// expected and pass silently; otherwise they earn a warning.
func (im *Importer) loadReferenceFiles(ctx context.Context, dir string, flat bool) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		im.log.Warn("no reference directory", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	reference := map[string]bool{}
	for _, t := range im.db.ReferenceTables() {
		reference[t] = true
	}

	present := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		table := strings.TrimSuffix(name, ".json")
		if !reference[table] {
			if !flat {
				im.log.Warn("skipping file that matches no reference table",
					zap.String("file", name))
			}
			continue
		}
		present[table] = filepath.Join(dir, name)
	}

	// Reference tables can reference each other, so keep dependency order.
	order, err := im.db.Graph().Sorted()
	if err != nil {
		return err
	}
	loaded := 0
	for _, table := range order {
		path, ok := present[table]
		if !ok {
			continue
		}
		if err := im.LoadFile(ctx, path); err != nil {
			return err
		}
		loaded++
	}

	im.log.Info("loaded reference tables", zap.Int("count", loaded))
	return nil
}

func (im *Importer) loadSourceFiles(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		im.log.Warn("no source directory", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	reference := map[string]bool{}
	for _, t := range im.db.ReferenceTables() {
		reference[t] = true
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		// In a flat layout reference tables sit beside the sources and
		// were already loaded.
		if reference[strings.TrimSuffix(name, ".json")] {
			continue
		}
		if err := im.LoadFile(ctx, filepath.Join(dir, name)); err != nil {
			return err
		}
		loaded++
		if loaded%im.opts.LogEvery == 0 {
			im.log.Info("import progress", zap.Int("done", loaded))
		}
	}

	im.log.Info("loaded source documents", zap.Int("count", loaded))
	return nil
}

// LoadFile reads one JSON document and loads it.
func (im *Importer) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := catalog.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := im.LoadDocument(ctx, doc); err != nil {
		return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadDocument inserts a document's rows in one transaction, tables ordered
// so that referenced rows land before the rows referencing them. When the
// document carries the primary table, its identity value is filled into the
// linking column of every other row that omits it.
func (im *Importer) LoadDocument(ctx context.Context, doc *catalog.Document) error {
	opts := im.db.Options()

	var identity interface{}
	if rows, ok := doc.Rows(opts.PrimaryTable); ok && len(rows) > 0 {
		raw, _ := rows[0].Get(opts.PrimaryKey)
		if raw != nil {
			primary, err := im.db.Table(opts.PrimaryTable)
			if err != nil {
				return err
			}
			identity, err = values.Decode(opts.PrimaryTable, primary.Column(opts.PrimaryKey), raw)
			if err != nil {
				return err
			}
		}
	}

	decoded := map[string][]map[string]interface{}{}
	for _, table := range doc.Tables() {
		t, err := im.db.Table(table)
		if err != nil {
			return err
		}
		docRows, _ := doc.Rows(table)
		inject := table != opts.PrimaryTable && identity != nil && t.HasColumn(opts.ForeignKey)

		rows := make([]map[string]interface{}, 0, len(docRows))
		for i, docRow := range docRows {
			row, err := decodeRow(t, docRow.Keys(), catalog.RowMap(docRow))
			if err != nil {
				return fmt.Errorf("table %s row %d: %w", table, i, err)
			}
			if inject {
				if _, ok := row[opts.ForeignKey]; !ok {
					row[opts.ForeignKey] = identity
				}
			}
			rows = append(rows, row)
		}
		decoded[table] = rows
	}

	order, err := im.db.Graph().Sorted()
	if err != nil {
		return err
	}

	return im.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, table := range order {
			rows, ok := decoded[table]
			if !ok {
				continue
			}
			if err := im.db.InsertTx(ctx, tx, table, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

// decodeRow converts a document row's JSON values to the column types the
// table declares. Columns the table does not know are an error; silently
// dropping them would break the promise that loaded state matches the files.
func decodeRow(t *schema.Table, keys []string, raw map[string]interface{}) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(raw))
	for _, key := range keys {
		col := t.Column(key)
		if col == nil {
			return nil, fmt.Errorf("%w: table %s has no column %s", db.ErrConversion, t.Name, key)
		}
		v, err := values.Decode(t.Name, col, raw[key])
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}
	return row, nil
}
