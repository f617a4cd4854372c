package values

import (
	"errors"
	"testing"
	"time"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	tests := []struct {
		name     string
		input    interface{}
		expected interface{}
	}{
		{"nil", nil, nil},
		{"bytes to string", []byte("WISE_W1"), "WISE_W1"},
		{"time to RFC3339 UTC", time.Date(2020, 3, 14, 10, 30, 0, 0, loc), "2020-03-14T15:30:00Z"},
		{"int to int64", int(42), int64(42)},
		{"int32 to int64", int32(-7), int64(-7)},
		{"uint to int64", uint(9), int64(9)},
		{"int64 stays", int64(1 << 40), int64(1 << 40)},
		{"float32 widens", float32(2.5), float64(2.5)},
		{"float64 stays", 13.348, 13.348},
		{"bool stays", true, true},
		{"string stays", "Cutr12", "Cutr12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%v) = %v (%T), want %v (%T)",
					tt.input, got, got, tt.expected, tt.expected)
			}
		})
	}
}

func TestNormalizeRow(t *testing.T) {
	row := map[string]interface{}{
		"source":    []byte("2MASS J13571237+1428398"),
		"ra":        209.301675,
		"epoch":     int32(2015),
		"shortname": nil,
	}
	NormalizeRow(row)

	if row["source"] != "2MASS J13571237+1428398" {
		t.Errorf("source = %v (%T)", row["source"], row["source"])
	}
	if row["epoch"] != int64(2015) {
		t.Errorf("epoch = %v (%T)", row["epoch"], row["epoch"])
	}
	if row["shortname"] != nil {
		t.Errorf("shortname = %v, want nil", row["shortname"])
	}
}

func col(name string, ct schema.ColumnType) *schema.Column {
	return &schema.Column{Name: name, Type: ct, Nullable: true}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		column   *schema.Column
		input    interface{}
		expected interface{}
		wantErr  bool
	}{
		{"nil passes", col("ra", schema.TypeDouble), nil, nil, false},
		{"whole float to int", col("epoch", schema.TypeInt), 2015.0, int64(2015), false},
		{"fractional float to int", col("epoch", schema.TypeInt), 2015.5, nil, true},
		{"string to int", col("epoch", schema.TypeBigInt), "2015", int64(2015), false},
		{"bad string to int", col("epoch", schema.TypeInt), "soon", nil, true},
		{"float stays", col("ra", schema.TypeDouble), 209.301675, 209.301675, false},
		{"int to float", col("ra", schema.TypeFloat), int64(209), 209.0, false},
		{"string to float", col("ra", schema.TypeDouble), "209.301675", 209.301675, false},
		{"bad string to float", col("ra", schema.TypeDouble), "north", nil, true},
		{"bool stays", col("flag", schema.TypeBool), true, true, false},
		{"number to bool", col("flag", schema.TypeBool), 1.0, true, false},
		{"zero to bool", col("flag", schema.TypeBool), 0.0, false, false},
		{"string to bool", col("flag", schema.TypeBool), "true", true, false},
		{"bad string to bool", col("flag", schema.TypeBool), "maybe", nil, true},
		{"string stays", col("band", schema.TypeString), "WISE_W1", "WISE_W1", false},
		{"number to string", col("comments", schema.TypeText), 3.5, "3.5", false},
		{"uuid string", col("id", schema.TypeUUID), "11e93f4f-8f15-44b0-ad41-0acadafbc1e9", "11e93f4f-8f15-44b0-ad41-0acadafbc1e9", false},
		{"spectrum url", col("access_url", schema.TypeSpectrum), "https://archive.example.org/spec.fits", "https://archive.example.org/spec.fits", false},
		{"spectrum env path", col("access_url", schema.TypeSpectrum), "$ASTRO_DATA/spectra/x.fits", "$ASTRO_DATA/spectra/x.fits", false},
		{"spectrum malformed", col("access_url", schema.TypeSpectrum), "just a note", nil, true},
		{"spectrum non-string", col("access_url", schema.TypeSpectrum), 7.0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode("Photometry", tt.column, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%v) expected error, got %v", tt.input, got)
				}
				if !errors.Is(err, db.ErrConversion) {
					t.Errorf("error should wrap ErrConversion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%v) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Decode(%v) = %v (%T), want %v (%T)", tt.input, got, got, tt.expected, tt.expected)
			}
		})
	}
}

func TestDecodeDates(t *testing.T) {
	d, err := Decode("Spectra", col("observation_date", schema.TypeDate), "2020-03-14")
	if err != nil {
		t.Fatalf("Decode date failed: %v", err)
	}
	if d.(time.Time) != time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC) {
		t.Errorf("date = %v", d)
	}

	ts, err := Decode("Spectra", col("observed_at", schema.TypeTimestamp), "2020-03-14T15:30:00Z")
	if err != nil {
		t.Fatalf("Decode timestamp failed: %v", err)
	}
	if ts.(time.Time) != time.Date(2020, 3, 14, 15, 30, 0, 0, time.UTC) {
		t.Errorf("timestamp = %v", ts)
	}

	// Timestamps written as bare dates still load.
	ts, err = Decode("Spectra", col("observed_at", schema.TypeTimestamp), "2020-03-14")
	if err != nil {
		t.Fatalf("Decode bare-date timestamp failed: %v", err)
	}
	if ts.(time.Time) != time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC) {
		t.Errorf("timestamp from bare date = %v", ts)
	}

	if _, err := Decode("Spectra", col("observation_date", schema.TypeDate), "14/03/2020"); err == nil {
		t.Error("expected error for unknown date layout")
	}
	if _, err := Decode("Spectra", col("observation_date", schema.TypeDate), 20200314.0); err == nil {
		t.Error("expected error for non-string date")
	}
}
