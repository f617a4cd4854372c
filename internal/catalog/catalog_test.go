package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

// fixtureSchema describes a small brown-dwarf catalog: three reference
// tables, an identity table with sky coordinates, and two dependent tables.
func fixtureSchema() *schema.Schema {
	f64 := func(v float64) *float64 { return &v }
	return &schema.Schema{
		Name: "test_catalog",
		Tables: []schema.Table{
			{
				Name: "Publications",
				Columns: []schema.Column{
					{Name: "publication", Type: schema.TypeString, Length: 30},
					{Name: "bibcode", Type: schema.TypeString, Length: 100, Nullable: true},
					{Name: "doi", Type: schema.TypeString, Length: 100, Nullable: true},
					{Name: "description", Type: schema.TypeText, Nullable: true},
				},
				PrimaryKey: []string{"publication"},
			},
			{
				Name: "Telescopes",
				Columns: []schema.Column{
					{Name: "telescope", Type: schema.TypeString, Length: 30},
					{Name: "reference", Type: schema.TypeString, Length: 30, Nullable: true},
				},
				PrimaryKey: []string{"telescope"},
				ForeignKeys: []schema.ForeignKey{
					{Columns: []string{"reference"}, RefTable: "Publications", RefColumns: []string{"publication"}},
				},
			},
			{
				Name: "Instruments",
				Columns: []schema.Column{
					{Name: "instrument", Type: schema.TypeString, Length: 30},
				},
				PrimaryKey: []string{"instrument"},
			},
			{
				Name: "Sources",
				Columns: []schema.Column{
					{Name: "source", Type: schema.TypeString, Length: 100},
					{Name: "ra", Type: schema.TypeDouble, Nullable: true},
					{Name: "dec", Type: schema.TypeDouble, Nullable: true},
					{Name: "shortname", Type: schema.TypeString, Length: 30, Nullable: true},
					{Name: "reference", Type: schema.TypeString, Length: 30},
					{Name: "comments", Type: schema.TypeText, Nullable: true},
				},
				PrimaryKey: []string{"source"},
				ForeignKeys: []schema.ForeignKey{
					{Columns: []string{"reference"}, RefTable: "Publications", RefColumns: []string{"publication"}},
				},
				Checks: []schema.Check{
					{Column: "ra", Min: f64(0), Max: f64(360)},
					{Column: "dec", Min: f64(-90), Max: f64(90)},
				},
			},
			{
				Name: "Names",
				Columns: []schema.Column{
					{Name: "source", Type: schema.TypeString, Length: 100},
					{Name: "other_name", Type: schema.TypeString, Length: 100},
				},
				PrimaryKey: []string{"source", "other_name"},
				ForeignKeys: []schema.ForeignKey{
					{Columns: []string{"source"}, RefTable: "Sources", RefColumns: []string{"source"}, OnDelete: schema.ActionCascade},
				},
			},
			{
				Name: "Photometry",
				Columns: []schema.Column{
					{Name: "source", Type: schema.TypeString, Length: 100},
					{Name: "band", Type: schema.TypeString, Length: 30},
					{Name: "magnitude", Type: schema.TypeDouble},
					{Name: "magnitude_error", Type: schema.TypeDouble, Nullable: true},
					{Name: "telescope", Type: schema.TypeString, Length: 30, Nullable: true},
					{Name: "epoch", Type: schema.TypeDouble, Nullable: true},
					{Name: "comments", Type: schema.TypeText, Nullable: true},
					{Name: "reference", Type: schema.TypeString, Length: 30, Nullable: true},
				},
				PrimaryKey: []string{"source", "band"},
				ForeignKeys: []schema.ForeignKey{
					{Columns: []string{"source"}, RefTable: "Sources", RefColumns: []string{"source"}, OnDelete: schema.ActionCascade},
					{Columns: []string{"telescope"}, RefTable: "Telescopes", RefColumns: []string{"telescope"}},
					{Columns: []string{"reference"}, RefTable: "Publications", RefColumns: []string{"publication"}},
				},
			},
		},
	}
}

// openFixtureDB creates the fixture catalog on an in-memory database.
func openFixtureDB(t *testing.T) *Database {
	return openFixtureDBWithOptions(t, Options{})
}

func openFixtureDBWithOptions(t *testing.T, opts Options) *Database {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.Config{URL: "sqlite://"})
	require.NoError(t, err)

	s := fixtureSchema()
	require.NoError(t, Create(ctx, conn, s, CreateOptions{}))

	d, err := New(conn, s, opts)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// seedFixture loads the 2MASS J1357+1428 test object and its support rows.
func seedFixture(t *testing.T, d *Database) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, d.AddRows(ctx, "Publications", []map[string]interface{}{
		{
			"publication": "Schm10",
			"bibcode":     "2010AJ....139.1808S",
			"doi":         "10.1088/0004-6256/139/5/1808",
			"description": "Colors and Kinematics of L Dwarfs from the Sloan Digital Sky Survey",
		},
		{
			"publication": "Cutr12",
			"bibcode":     "2012yCat.2311....0C",
			"description": "WISE All-Sky Data Release",
		},
	}))

	require.NoError(t, d.AddRows(ctx, "Telescopes", []map[string]interface{}{
		{"telescope": "WISE"},
	}))

	require.NoError(t, d.AddRows(ctx, "Sources", []map[string]interface{}{
		{
			"source":    "2MASS J13571237+1428398",
			"ra":        209.301675,
			"dec":       14.477722,
			"shortname": "1357+1428",
			"reference": "Schm10",
		},
	}))

	require.NoError(t, d.AddRows(ctx, "Names", []map[string]interface{}{
		{"source": "2MASS J13571237+1428398", "other_name": "2MASS J13571237+1428398"},
		{"source": "2MASS J13571237+1428398", "other_name": "SDSS J135712.40+142839.8"},
	}))

	require.NoError(t, d.AddRows(ctx, "Photometry", []map[string]interface{}{
		{
			"source":          "2MASS J13571237+1428398",
			"band":            "WISE_W1",
			"magnitude":       13.348,
			"magnitude_error": 0.025,
			"telescope":       "WISE",
			"reference":       "Cutr12",
		},
		{
			"source":          "2MASS J13571237+1428398",
			"band":            "WISE_W2",
			"magnitude":       12.990,
			"magnitude_error": 0.028,
			"telescope":       "WISE",
			"reference":       "Cutr12",
		},
	}))
}

func TestNewValidatesConventions(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{URL: "sqlite://"})
	require.NoError(t, err)
	defer conn.Close()

	_, err = New(conn, fixtureSchema(), Options{PrimaryTable: "Objects"})
	assert.ErrorIs(t, err, db.ErrConfiguration)
	assert.Contains(t, err.Error(), "Objects")

	_, err = New(conn, fixtureSchema(), Options{PrimaryKey: "designation"})
	assert.ErrorIs(t, err, db.ErrConfiguration)
	assert.Contains(t, err.Error(), "designation")
}

func TestNewAppliesTypeOverrides(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{URL: "sqlite://"})
	require.NoError(t, err)
	defer conn.Close()

	s := fixtureSchema()
	d, err := New(conn, s, Options{
		ColumnTypeOverrides: map[string]string{"Sources.comments": "spectrum"},
	})
	require.NoError(t, err)

	tbl, err := d.Table("Sources")
	require.NoError(t, err)
	assert.Equal(t, schema.TypeSpectrum, tbl.Column("comments").Type)

	_, err = New(conn, fixtureSchema(), Options{
		ColumnTypeOverrides: map[string]string{"Sources.comments": "varchar"},
	})
	assert.Error(t, err)
}

func TestTableSuggestsCloseNames(t *testing.T) {
	d := openFixtureDB(t)

	tbl, err := d.Table("Photometry")
	require.NoError(t, err)
	assert.Equal(t, "Photometry", tbl.Name)

	_, err = d.Table("Fotometry")
	require.ErrorIs(t, err, db.ErrConfiguration)
	assert.Contains(t, err.Error(), "did you mean Photometry")

	_, err = d.Table("CompletelyUnrelated")
	require.ErrorIs(t, err, db.ErrConfiguration)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestReferenceTableClassification(t *testing.T) {
	d := openFixtureDB(t)

	assert.True(t, d.IsReferenceTable("Publications"))
	assert.True(t, d.IsReferenceTable("Instruments"))
	assert.False(t, d.IsReferenceTable("Sources"))
	assert.False(t, d.IsReferenceTable("Names"))

	assert.Equal(t, []string{"Publications", "Telescopes", "Instruments"}, d.ReferenceTables())
}

func TestReferenceTablesFilteredToSchema(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{URL: "sqlite://"})
	require.NoError(t, err)
	defer conn.Close()

	d, err := New(conn, fixtureSchema(), Options{
		ReferenceTables: []string{"Publications", "Campaigns"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Publications"}, d.ReferenceTables())
	assert.True(t, d.IsReferenceTable("Campaigns"), "classification follows configuration even off-schema")
}
