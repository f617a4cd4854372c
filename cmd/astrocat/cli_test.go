package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	testBinary     string
	testBinaryOnce sync.Once
	testBinaryErr  error
)

// buildTestBinary builds the astrocat binary once for all tests.
func buildTestBinary() (string, error) {
	testBinaryOnce.Do(func() {
		tmpBinary := filepath.Join(os.TempDir(), "astrocat-test")
		cmd := exec.Command("go", "build", "-o", tmpBinary, ".")
		if out, err := cmd.CombinedOutput(); err != nil {
			testBinaryErr = err
			testBinary = string(out)
			return
		}
		testBinary = tmpBinary
	})

	if testBinaryErr != nil {
		return "", testBinaryErr
	}
	return testBinary, nil
}

// runCLI runs the binary in dir and returns its combined output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	binary, err := buildTestBinary()
	if err != nil {
		t.Fatalf("failed to build test binary: %v", err)
	}
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

const testSchemaYAML = `name: cli_test
tables:
  - name: Publications
    columns:
      - name: publication
        type: string
        length: 30
        nullable: false
      - name: bibcode
        type: string
        length: 100
    primary_key: [publication]

  - name: Sources
    columns:
      - name: source
        type: string
        length: 100
        nullable: false
      - name: ra
        type: double
      - name: dec
        type: double
      - name: shortname
        type: string
        length: 30
      - name: reference
        type: string
        length: 30
        nullable: false
    primary_key: [source]
    foreign_keys:
      - columns: [reference]
        references: Publications
        ref_columns: [publication]
    checks:
      - column: ra
        min: 0
        max: 360
`

// setupCatalog creates a sqlite catalog with two tables in a temp directory
// and returns the directory and database URL.
func setupCatalog(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte(testSchemaYAML), 0o644); err != nil {
		t.Fatalf("writing schema file: %v", err)
	}

	dbURL := "sqlite:///" + filepath.Join(dir, "catalog.db")
	out, err := runCLI(t, dir, "create", "--schema", "schema.yaml", "--db", dbURL)
	if err != nil {
		t.Fatalf("create command failed: %v\nOutput: %s", err, out)
	}
	return dir, dbURL
}

// seedCatalog loads one publication and one source through the add command.
func seedCatalog(t *testing.T, dir, dbURL string) {
	t.Helper()

	pubs := "publication,bibcode\nSchm10,2010AJ....139.1045S\n"
	if err := os.WriteFile(filepath.Join(dir, "pubs.csv"), []byte(pubs), 0o644); err != nil {
		t.Fatalf("writing pubs.csv: %v", err)
	}
	sources := "source,ra,dec,shortname,reference\n" +
		"2MASS J13571237+1428398,209.301675,14.477722,1357+1428,Schm10\n"
	if err := os.WriteFile(filepath.Join(dir, "sources.csv"), []byte(sources), 0o644); err != nil {
		t.Fatalf("writing sources.csv: %v", err)
	}

	for _, load := range [][2]string{{"Publications", "pubs.csv"}, {"Sources", "sources.csv"}} {
		out, err := runCLI(t, dir, "add", load[0], load[1], "--db", dbURL)
		if err != nil {
			t.Fatalf("add %s failed: %v\nOutput: %s", load[0], err, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, out)
	}

	expected := []string{
		"astrocat version:",
		"Git commit:",
		"Build date:",
		"Go version:",
	}
	for _, exp := range expected {
		if !strings.Contains(out, exp) {
			t.Errorf("version output missing %q\nGot: %s", exp, out)
		}
	}
}

func TestCreateAndSchemaCommands(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte(testSchemaYAML), 0o644); err != nil {
		t.Fatalf("writing schema file: %v", err)
	}
	dbURL := "sqlite:///" + filepath.Join(dir, "catalog.db")

	out, err := runCLI(t, dir, "create", "--schema", "schema.yaml", "--db", dbURL)
	if err != nil {
		t.Fatalf("create command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Created 2 tables from schema.yaml") {
		t.Errorf("create output missing summary, got: %s", out)
	}

	out, err = runCLI(t, dir, "schema", "--db", dbURL)
	if err != nil {
		t.Fatalf("schema command failed: %v\nOutput: %s", err, out)
	}
	for _, exp := range []string{
		"TABLE Sources (PK: source)",
		"TABLE Publications (PK: publication)",
		"reference → Publications.publication",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("schema output missing %q\nGot: %s", exp, out)
		}
	}
}

func TestCreateCommandRequiresSchemaFile(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "create")
	if err == nil {
		t.Fatal("create should fail without a schema file")
	}
	if !strings.Contains(out, "no schema file given") {
		t.Errorf("error should mention the missing schema file, got: %s", out)
	}
}

func TestAddAndSQLCommands(t *testing.T) {
	dir, dbURL := setupCatalog(t)
	seedCatalog(t, dir, dbURL)

	out, err := runCLI(t, dir, "sql", "SELECT publication, bibcode FROM Publications", "--db", dbURL, "--format", "csv")
	if err != nil {
		t.Fatalf("sql command failed: %v\nOutput: %s", err, out)
	}
	if want := "publication,bibcode\nSchm10,2010AJ....139.1045S\n"; out != want {
		t.Errorf("sql csv output = %q, want %q", out, want)
	}

	out, err = runCLI(t, dir, "sql", "SELECT * FROM Sources WHERE source = 'nope'", "--db", dbURL)
	if err != nil {
		t.Fatalf("sql command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "No rows") {
		t.Errorf("empty result should print No rows, got: %s", out)
	}
}

func TestSQLCommandRejectsUnknownFormat(t *testing.T) {
	dir, dbURL := setupCatalog(t)

	out, err := runCLI(t, dir, "sql", "SELECT 1 AS one", "--db", dbURL, "--format", "yaml")
	if err == nil {
		t.Fatal("sql should fail for an unknown format")
	}
	if !strings.Contains(out, "unknown format") {
		t.Errorf("error should mention the unknown format, got: %s", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir, dbURL := setupCatalog(t)
	seedCatalog(t, dir, dbURL)

	out, err := runCLI(t, dir, "export", "data", "--db", dbURL)
	if err != nil {
		t.Fatalf("export command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Exported 1 sources and 1 reference tables to data") {
		t.Errorf("export output missing summary, got: %s", out)
	}

	for _, file := range []string{
		"data/reference/Publications.json",
		"data/source/2mass_j13571237+1428398.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, file)); err != nil {
			t.Errorf("expected export file %s: %v", file, err)
		}
	}

	out, err = runCLI(t, dir, "import", "data", "--yes", "--db", dbURL)
	if err != nil {
		t.Fatalf("import command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Loaded catalog from data") {
		t.Errorf("import output missing summary, got: %s", out)
	}

	out, err = runCLI(t, dir, "sql", "SELECT COUNT(*) AS n FROM Sources", "--db", dbURL, "--format", "csv")
	if err != nil {
		t.Fatalf("sql command failed: %v\nOutput: %s", err, out)
	}
	if want := "n\n1\n"; out != want {
		t.Errorf("source count after import = %q, want %q", out, want)
	}
}

func TestSearchAndRegionCommands(t *testing.T) {
	dir, dbURL := setupCatalog(t)
	seedCatalog(t, dir, dbURL)

	out, err := runCLI(t, dir, "search", "1357", "--db", dbURL)
	if err != nil {
		t.Fatalf("search command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "2MASS J13571237+1428398") {
		t.Errorf("search should find the seeded source, got: %s", out)
	}

	out, err = runCLI(t, dir, "search", "Vega", "--db", dbURL)
	if err != nil {
		t.Fatalf("search command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "No matches") {
		t.Errorf("miss should print No matches, got: %s", out)
	}

	out, err = runCLI(t, dir, "region", "209.301675", "14.477722", "--db", dbURL)
	if err != nil {
		t.Fatalf("region command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "2MASS J13571237+1428398") {
		t.Errorf("region should find the seeded source, got: %s", out)
	}

	out, err = runCLI(t, dir, "region", "10", "89", "--db", dbURL)
	if err != nil {
		t.Fatalf("region command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "No sources within") {
		t.Errorf("empty region should print No sources, got: %s", out)
	}
}
