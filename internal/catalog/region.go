package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/values"
)

// DefaultRadiusArcsec is the cone search radius when none is given.
const DefaultRadiusArcsec = 10.0

// RegionOptions tune QueryRegion. The zero value reads coordinates from the
// primary table and returns its rows.
type RegionOptions struct {
	OutputTable string
	CoordTable  string
	RAColumn    string
	DecColumn   string
}

// QueryRegion finds identities within an angular radius of a sky position.
// Coordinates are degrees; the radius is arcseconds. Candidates are narrowed
// with a declination band in SQL, then checked by great-circle separation.
// Rows with null coordinates never match.
func (d *Database) QueryRegion(ctx context.Context, ra, dec, radiusArcsec float64, opts *RegionOptions) ([]map[string]interface{}, error) {
	if opts == nil {
		opts = &RegionOptions{}
	}
	if radiusArcsec <= 0 {
		radiusArcsec = DefaultRadiusArcsec
	}
	coordTable := opts.CoordTable
	if coordTable == "" {
		coordTable = d.opts.PrimaryTable
	}
	outputTable := opts.OutputTable
	if outputTable == "" {
		outputTable = d.opts.PrimaryTable
	}
	raCol := opts.RAColumn
	if raCol == "" {
		raCol = d.opts.RAColumn
	}
	decCol := opts.DecColumn
	if decCol == "" {
		decCol = d.opts.DecColumn
	}

	t, err := d.Table(coordTable)
	if err != nil {
		return nil, err
	}
	identityCol := d.identityColumn(coordTable)
	for _, col := range []string{identityCol, raCol, decCol} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("table %s has no column %s", coordTable, col)
		}
	}

	radiusDeg := radiusArcsec / 3600.0
	decMin, decMax := dec-radiusDeg, dec+radiusDeg
	if decMin < -90 {
		decMin = -90
	}
	if decMax > 90 {
		decMax = 90
	}

	rows, err := query.New(t, d.conn.Dialect()).
		Select(identityCol, raCol, decCol).
		WhereBetween(decCol, decMin, decMax).
		WhereNotNull(raCol).
		All(ctx, d.conn.DB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", coordTable, err)
	}

	center := s2.LatLngFromDegrees(dec, ra)
	radius := s1.Angle(radiusDeg) * s1.Degree

	var ids []string
	seen := map[string]bool{}
	for _, r := range rows {
		rowRA, ok := asFloat(r[raCol])
		if !ok {
			continue
		}
		rowDec, ok := asFloat(r[decCol])
		if !ok {
			continue
		}
		if center.Distance(s2.LatLngFromDegrees(rowDec, rowRA)) > radius {
			continue
		}
		if r[identityCol] == nil {
			continue
		}
		id := fmt.Sprint(values.Normalize(r[identityCol]))
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	d.log.Debug("region query",
		zap.Float64("ra", ra), zap.Float64("dec", dec),
		zap.Float64("radius_arcsec", radiusArcsec), zap.Int("matches", len(ids)))

	if len(ids) == 0 {
		return nil, nil
	}
	return d.rowsForIdentities(ctx, outputTable, ids)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
