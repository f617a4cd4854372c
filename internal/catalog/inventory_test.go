package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

func TestInventory(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	doc, err := d.Inventory(ctx, "2MASS J13571237+1428398")
	require.NoError(t, err)

	// Identity table first, then its dependents in foreign-key order.
	assert.Equal(t, []string{"Sources", "Names", "Photometry"}, doc.Tables())

	sources, ok := doc.Rows("Sources")
	require.True(t, ok)
	require.Len(t, sources, 1)
	assert.Equal(t, []string{"source", "ra", "dec", "shortname", "reference", "comments"},
		sources[0].Keys())
	ra, _ := sources[0].Get("ra")
	assert.Equal(t, 209.301675, ra)
	comments, _ := sources[0].Get("comments")
	assert.Nil(t, comments)

	// Dependent rows drop the linking column; import injects it back.
	names, ok := doc.Rows("Names")
	require.True(t, ok)
	require.Len(t, names, 2)
	for _, row := range names {
		assert.Equal(t, []string{"other_name"}, row.Keys())
	}
	first, _ := names[0].Get("other_name")
	assert.Equal(t, "2MASS J13571237+1428398", first)
	second, _ := names[1].Get("other_name")
	assert.Equal(t, "SDSS J135712.40+142839.8", second)

	phot, ok := doc.Rows("Photometry")
	require.True(t, ok)
	require.Len(t, phot, 2)
	assert.Equal(t, []string{"band", "magnitude", "magnitude_error", "telescope", "epoch", "comments", "reference"},
		phot[0].Keys())
	band, _ := phot[0].Get("band")
	assert.Equal(t, "WISE_W1", band)
	mag, _ := phot[0].Get("magnitude")
	assert.Equal(t, 13.348, mag)
	tel, _ := phot[0].Get("telescope")
	assert.Equal(t, "WISE", tel)
	epoch, _ := phot[0].Get("epoch")
	assert.Nil(t, epoch)
}

func TestInventorySkipsEmptyDependents(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	// A source with no dependent rows yields a one-table document.
	require.NoError(t, d.AddRows(ctx, "Sources", []map[string]interface{}{
		{"source": "TWA 27", "ra": 165.46627, "dec": -39.548329, "reference": "Schm10"},
	}))

	doc, err := d.Inventory(ctx, "TWA 27")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources"}, doc.Tables())
}

func TestInventoryUnknownIdentity(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)

	_, err := d.Inventory(context.Background(), "Luhman 16")
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, err.Error(), "Luhman 16")
}

func TestInventoryDepth(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{URL: "sqlite://"})
	require.NoError(t, err)
	defer conn.Close()

	// A two-hop chain: Frames reference Observations, which reference the
	// identity table.
	s := &schema.Schema{Tables: []schema.Table{
		{
			Name:       "Sources",
			Columns:    []schema.Column{{Name: "source", Type: schema.TypeString, Length: 100}},
			PrimaryKey: []string{"source"},
		},
		{
			Name: "Observations",
			Columns: []schema.Column{
				{Name: "observation", Type: schema.TypeString, Length: 30},
				{Name: "source", Type: schema.TypeString, Length: 100},
			},
			PrimaryKey: []string{"observation"},
			ForeignKeys: []schema.ForeignKey{
				{Columns: []string{"source"}, RefTable: "Sources", RefColumns: []string{"source"}},
			},
		},
		{
			Name: "Frames",
			Columns: []schema.Column{
				{Name: "frame", Type: schema.TypeString, Length: 30},
				{Name: "observation", Type: schema.TypeString, Length: 30},
			},
			PrimaryKey: []string{"frame"},
			ForeignKeys: []schema.ForeignKey{
				{Columns: []string{"observation"}, RefTable: "Observations", RefColumns: []string{"observation"}},
			},
		},
	}}
	require.NoError(t, Create(ctx, conn, s, CreateOptions{}))

	shallow, err := New(conn, s, Options{})
	require.NoError(t, err)
	require.NoError(t, shallow.AddRows(ctx, "Sources", []map[string]interface{}{
		{"source": "TWA 27"},
	}))
	require.NoError(t, shallow.AddRows(ctx, "Observations", []map[string]interface{}{
		{"observation": "obs-1", "source": "TWA 27"},
		{"observation": "obs-2", "source": "TWA 27"},
	}))
	require.NoError(t, shallow.AddRows(ctx, "Frames", []map[string]interface{}{
		{"frame": "f-1", "observation": "obs-1"},
		{"frame": "f-2", "observation": "obs-2"},
	}))

	// The default depth stops at direct dependents.
	doc, err := shallow.Inventory(ctx, "TWA 27")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources", "Observations"}, doc.Tables())

	deep, err := New(conn, s, Options{InventoryDepth: 2})
	require.NoError(t, err)

	doc, err = deep.Inventory(ctx, "TWA 27")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources", "Observations", "Frames"}, doc.Tables())

	frames, ok := doc.Rows("Frames")
	require.True(t, ok)
	require.Len(t, frames, 2)
	assert.Equal(t, []string{"frame", "observation"}, frames[0].Keys())
	obs, _ := frames[0].Get("observation")
	assert.Equal(t, "obs-1", obs)
}

func TestDistinctValues(t *testing.T) {
	rows := []map[string]interface{}{
		{"source": "a"},
		{"source": "b"},
		{"source": "a"},
		{"source": nil},
	}
	got := distinctValues(rows, "source")
	assert.Equal(t, []interface{}{"a", "b"}, got)
}
