package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrocatdb/astrocat/internal/db"
)

func TestTableRows(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	rows, err := d.TableRows(ctx, "Photometry")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by primary key, values normalized to portable types.
	assert.Equal(t, "WISE_W1", rows[0]["band"])
	assert.Equal(t, 13.348, rows[0]["magnitude"])
	assert.Equal(t, "WISE", rows[0]["telescope"])
	assert.Nil(t, rows[0]["epoch"])
	assert.Equal(t, "WISE_W2", rows[1]["band"])

	_, err = d.TableRows(ctx, "Fotometry")
	assert.ErrorIs(t, err, db.ErrConfiguration)
}

func TestIdentities(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	require.NoError(t, d.AddRows(ctx, "Sources", []map[string]interface{}{
		{"source": "TWA 27", "ra": 165.46627, "dec": -39.548329, "reference": "Schm10"},
	}))

	ids, err := d.Identities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2MASS J13571237+1428398", "TWA 27"}, ids)
}

func TestReferenceDocument(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	doc, err := d.ReferenceDocument(ctx, "Publications")
	require.NoError(t, err)
	require.Equal(t, []string{"Publications"}, doc.Tables())

	rows, ok := doc.Rows("Publications")
	require.True(t, ok)
	require.Len(t, rows, 2)

	// Primary key order puts Cutr12 first; columns follow declaration order.
	assert.Equal(t, []string{"publication", "bibcode", "doi", "description"}, rows[0].Keys())
	pub, _ := rows[0].Get("publication")
	assert.Equal(t, "Cutr12", pub)
	doi, _ := rows[0].Get("doi")
	assert.Nil(t, doi, "missing DOI survives as an explicit null")

	// An empty table still yields a document, just with no entries.
	empty, err := d.ReferenceDocument(ctx, "Instruments")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestClear(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	require.NoError(t, d.Clear(ctx))

	for _, table := range []string{"Publications", "Sources", "Names", "Photometry"} {
		rows, err := d.TableRows(ctx, table)
		require.NoError(t, err)
		assert.Empty(t, rows, table)
	}

	// Clearing an already-empty catalog is fine.
	require.NoError(t, d.Clear(ctx))
}

func TestSQL(t *testing.T) {
	d := openFixtureDB(t)
	seedFixture(t, d)
	ctx := context.Background()

	rows, columns, err := d.SQL(ctx,
		`SELECT band, magnitude FROM "Photometry" WHERE magnitude < ? ORDER BY band`, 13.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"band", "magnitude"}, columns)
	require.Len(t, rows, 1)
	assert.Equal(t, "WISE_W2", rows[0]["band"])
	assert.Equal(t, 12.99, rows[0]["magnitude"])

	_, _, err = d.SQL(ctx, `SELECT nope FROM "Photometry"`)
	assert.Error(t, err)
}
