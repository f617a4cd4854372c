// Package exchange moves whole catalogs between a live database and a
// directory of JSON documents. An export writes one file per reference table
// and one file per identity; an import clears the database and rebuilds it
// from those files, so the directory and the database always describe the
// same rows.
package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/catalog"
)

// Subdirectory names inside an export root.
const (
	DefaultReferenceDir = "reference"
	DefaultSourceDir    = "source"
)

// defaultLogEvery is how many identities go between progress messages.
const defaultLogEvery = 100

// Options tune an Exporter or Importer.
type Options struct {
	// ReferenceDir and SourceDir name the two subdirectories of the root.
	ReferenceDir string
	SourceDir    string
	// LogEvery is the progress reporting interval, in documents.
	LogEvery int
	Logger   *zap.Logger
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.ReferenceDir == "" {
		out.ReferenceDir = DefaultReferenceDir
	}
	if out.SourceDir == "" {
		out.SourceDir = DefaultSourceDir
	}
	if out.LogEvery <= 0 {
		out.LogEvery = defaultLogEvery
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}

// Exporter writes catalog contents as JSON documents.
type Exporter struct {
	db   *catalog.Database
	opts *Options
	log  *zap.Logger
}

// NewExporter creates an exporter over an open catalog.
func NewExporter(db *catalog.Database, opts *Options) *Exporter {
	o := opts.withDefaults()
	return &Exporter{db: db, opts: o, log: o.Logger}
}

// Filename derives the file name for an identity: lowercased, spaces become
// underscores, asterisks vanish. "2MASS J13571237+1428398" becomes
// "2mass_j13571237+1428398.json".
func Filename(identity string) string {
	name := strings.ToLower(strings.TrimSpace(identity))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "*", "")
	return name + ".json"
}

// ExportSource writes the inventory of one identity into dir and returns the
// file path.
func (e *Exporter) ExportSource(ctx context.Context, dir, identity string) (string, error) {
	doc, err := e.db.Inventory(ctx, identity)
	if err != nil {
		return "", err
	}
	data, err := doc.Encode(true)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", identity, err)
	}

	path := filepath.Join(dir, Filename(identity))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ExportReferenceTable writes one reference table into dir, named after the
// table. Empty tables produce no file and an empty path.
func (e *Exporter) ExportReferenceTable(ctx context.Context, dir, table string) (string, error) {
	doc, err := e.db.ReferenceDocument(ctx, table)
	if err != nil {
		return "", err
	}
	if doc.Len() == 0 {
		e.log.Debug("skipping empty reference table", zap.String("table", table))
		return "", nil
	}
	data, err := doc.Encode(true)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", table, err)
	}

	path := filepath.Join(dir, table+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ExportAll writes the entire catalog under root: every reference table into
// the reference subdirectory and every identity into the source
// subdirectory. Everything under root is removed first, so the files
// afterward match the database exactly, with nothing stale left over.
func (e *Exporter) ExportAll(ctx context.Context, root string) error {
	if err := clearDir(root); err != nil {
		return err
	}

	refDir := filepath.Join(root, e.opts.ReferenceDir)
	srcDir := filepath.Join(root, e.opts.SourceDir)
	for _, dir := range []string{refDir, srcDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	for _, table := range e.db.ReferenceTables() {
		if _, err := e.ExportReferenceTable(ctx, refDir, table); err != nil {
			return err
		}
	}

	identities, err := e.db.Identities(ctx)
	if err != nil {
		return err
	}
	for i, identity := range identities {
		if _, err := e.ExportSource(ctx, srcDir, identity); err != nil {
			return err
		}
		if (i+1)%e.opts.LogEvery == 0 {
			e.log.Info("export progress",
				zap.Int("done", i+1), zap.Int("total", len(identities)))
		}
	}

	e.log.Info("exported catalog", zap.String("root", root),
		zap.Int("sources", len(identities)),
		zap.Int("reference_tables", len(e.db.ReferenceTables())))
	return nil
}

// clearDir removes every entry under dir, creating dir when absent. Exports
// promise the directory afterward encodes the database and nothing else, so
// deletions in the database must become deletions on disk.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("clearing %s: %w", dir, err)
		}
	}
	return nil
}
