package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
)

// Backup writes a consistent copy of a SQLite catalog to path using
// VACUUM INTO. Other engines have their own dump tooling and are refused.
func (d *Database) Backup(ctx context.Context, path string) error {
	if d.conn.Engine() != db.EngineSQLite {
		return fmt.Errorf("%w: backup requires a SQLite catalog, connection is %s",
			db.ErrConfiguration, d.conn.Engine())
	}
	if _, err := d.conn.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("backing up to %s: %w", path, db.ConvertDBError(err))
	}
	d.log.Info("wrote backup", zap.String("path", path))
	return nil
}
