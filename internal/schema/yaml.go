package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/astrocatdb/astrocat/internal/db"
)

// yamlSchema mirrors the on-disk YAML schema document. It is decoded, tag
// validated, then converted into the plain descriptors.
type yamlSchema struct {
	Name   string      `yaml:"name"`
	Tables []yamlTable `yaml:"tables" validate:"required,min=1,dive"`
}

type yamlTable struct {
	Name        string           `yaml:"name" validate:"required"`
	Columns     []yamlColumn     `yaml:"columns" validate:"required,min=1,dive"`
	PrimaryKey  []string         `yaml:"primary_key"`
	ForeignKeys []yamlForeignKey `yaml:"foreign_keys" validate:"dive"`
	Checks      []yamlCheck      `yaml:"checks" validate:"dive"`
}

type yamlColumn struct {
	Name     string      `yaml:"name" validate:"required"`
	Type     string      `yaml:"type" validate:"required"`
	Length   int         `yaml:"length"`
	Nullable *bool       `yaml:"nullable"`
	Default  interface{} `yaml:"default"`
}

type yamlForeignKey struct {
	Columns    []string `yaml:"columns" validate:"required,min=1"`
	References string   `yaml:"references" validate:"required"`
	RefColumns []string `yaml:"ref_columns"`
	OnDelete   string   `yaml:"on_delete"`
}

type yamlCheck struct {
	Column  string   `yaml:"column" validate:"required"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Pattern string   `yaml:"pattern"`
	OneOf   []string `yaml:"one_of"`
}

// LoadYAML reads and validates a YAML schema document from disk.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading schema file: %v", db.ErrConfiguration, err)
	}
	s, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// ParseYAML decodes and validates a YAML schema document.
func ParseYAML(data []byte) (*Schema, error) {
	var doc yamlSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing schema document: %v", db.ErrConfiguration, err)
	}
	if err := validateDoc(&doc); err != nil {
		return nil, err
	}
	return buildSchema(&doc)
}

func validateDoc(doc *yamlSchema) error {
	validate := validator.New()
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, e := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag())
			}
			return fmt.Errorf("%w: invalid schema document: %s", db.ErrConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: invalid schema document: %v", db.ErrConfiguration, err)
	}
	return nil
}

// buildSchema converts the decoded document into descriptors and enforces the
// cross-references tags cannot express: type names parse, primary key columns
// exist, foreign keys point at real tables and columns.
func buildSchema(doc *yamlSchema) (*Schema, error) {
	s := &Schema{Name: doc.Name}
	for _, yt := range doc.Tables {
		t := Table{Name: yt.Name}

		for _, yc := range yt.Columns {
			ct, err := ParseColumnType(yc.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: table %s column %s: %v", db.ErrConfiguration, yt.Name, yc.Name, err)
			}
			nullable := true
			if yc.Nullable != nil {
				nullable = *yc.Nullable
			}
			t.Columns = append(t.Columns, Column{
				Name:     yc.Name,
				Type:     ct,
				Length:   yc.Length,
				Nullable: nullable,
				Default:  yc.Default,
			})
		}

		for _, pk := range yt.PrimaryKey {
			if !t.HasColumn(pk) {
				return nil, fmt.Errorf("%w: table %s: primary key column %s not declared", db.ErrConfiguration, yt.Name, pk)
			}
		}
		t.PrimaryKey = yt.PrimaryKey

		// Primary key columns are implicitly NOT NULL.
		for i := range t.Columns {
			if t.IsPrimaryKey(t.Columns[i].Name) {
				t.Columns[i].Nullable = false
			}
		}

		for _, yfk := range yt.ForeignKeys {
			action, err := ParseReferentialAction(yfk.OnDelete)
			if err != nil {
				return nil, fmt.Errorf("%w: table %s: %v", db.ErrConfiguration, yt.Name, err)
			}
			for _, c := range yfk.Columns {
				if !t.HasColumn(c) {
					return nil, fmt.Errorf("%w: table %s: foreign key column %s not declared", db.ErrConfiguration, yt.Name, c)
				}
			}
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Columns:    yfk.Columns,
				RefTable:   yfk.References,
				RefColumns: yfk.RefColumns,
				OnDelete:   action,
			})
		}

		for _, yc := range yt.Checks {
			if !t.HasColumn(yc.Column) {
				return nil, fmt.Errorf("%w: table %s: check on undeclared column %s", db.ErrConfiguration, yt.Name, yc.Column)
			}
			t.Checks = append(t.Checks, Check{
				Column:  yc.Column,
				Min:     yc.Min,
				Max:     yc.Max,
				Pattern: yc.Pattern,
				OneOf:   yc.OneOf,
			})
		}

		s.Tables = append(s.Tables, t)
	}

	// Resolve foreign keys now that every table is known. Empty ref_columns
	// default to the referenced table's primary key.
	for i := range s.Tables {
		t := &s.Tables[i]
		for j := range t.ForeignKeys {
			fk := &t.ForeignKeys[j]
			ref, ok := s.Table(fk.RefTable)
			if !ok {
				return nil, fmt.Errorf("%w: table %s: foreign key references unknown table %s", db.ErrConfiguration, t.Name, fk.RefTable)
			}
			if len(fk.RefColumns) == 0 {
				if len(ref.PrimaryKey) != len(fk.Columns) {
					return nil, fmt.Errorf("%w: table %s: foreign key to %s needs ref_columns, primary key width differs", db.ErrConfiguration, t.Name, fk.RefTable)
				}
				fk.RefColumns = append([]string(nil), ref.PrimaryKey...)
			}
			for _, rc := range fk.RefColumns {
				if !ref.HasColumn(rc) {
					return nil, fmt.Errorf("%w: table %s: foreign key references unknown column %s.%s", db.ErrConfiguration, t.Name, fk.RefTable, rc)
				}
			}
		}
	}

	return s, nil
}
