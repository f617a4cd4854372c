package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRows(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT .* FROM Sources").WillReturnRows(
		sqlmock.NewRows([]string{"source", "ra", "dec"}).
			AddRow("2MASS J13571237+1428398", 209.301675, 14.477722).
			AddRow("TWA 27", 165.46627, -39.548329).
			AddRow("Gl 229b", nil, nil))

	rows, err := conn.Query("SELECT source, ra, dec FROM Sources")
	require.NoError(t, err)
	defer rows.Close()

	results, columns, err := ScanRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"source", "ra", "dec"}, columns)
	require.Len(t, results, 3)
	assert.Equal(t, "2MASS J13571237+1428398", results[0]["source"])
	assert.Equal(t, 209.301675, results[0]["ra"])
	assert.Nil(t, results[2]["ra"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRowsEmpty(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"source"}))

	rows, err := conn.Query("SELECT source FROM Sources")
	require.NoError(t, err)
	defer rows.Close()

	results, columns, err := ScanRows(rows)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, []string{"source"}, columns)
}

func TestScanRow(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT .* WHERE source =").WillReturnRows(
		sqlmock.NewRows([]string{"source", "shortname"}).
			AddRow("2MASS J13571237+1428398", "1357+1428"))

	row := conn.QueryRow("SELECT source, shortname FROM Sources WHERE source = ?", "2MASS J13571237+1428398")
	record, err := ScanRow(row, []string{"source", "shortname"})
	require.NoError(t, err)
	assert.Equal(t, "1357+1428", record["shortname"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRowNotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"source"}))

	row := conn.QueryRow("SELECT source FROM Sources WHERE source = ?", "nope")
	_, err = ScanRow(row, []string{"source"})
	assert.ErrorIs(t, err, ErrNotFound)
}
