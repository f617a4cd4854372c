package schema

import (
	"fmt"
	"sort"
)

// Edge is one foreign-key dependency: From references To.
type Edge struct {
	From        string
	FromColumns []string
	To          string
	ToColumns   []string
}

// Graph is the foreign-key dependency graph of a schema. It answers the two
// questions the import/export engines care about: in what order can tables be
// written (referenced before referencing), and which tables hang off a given
// identity table.
type Graph struct {
	schema *Schema
	edges  []Edge
}

// NewGraph builds the dependency graph from a schema's foreign keys.
func NewGraph(s *Schema) *Graph {
	g := &Graph{schema: s}
	for i := range s.Tables {
		t := &s.Tables[i]
		for _, fk := range t.ForeignKeys {
			g.edges = append(g.edges, Edge{
				From:        t.Name,
				FromColumns: fk.Columns,
				To:          fk.RefTable,
				ToColumns:   fk.RefColumns,
			})
		}
	}
	return g
}

// Edges returns all foreign-key edges.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Dependents returns the edges pointing at the given table, i.e. the tables
// holding a foreign key into it. Self-references are excluded; a table is
// never its own dependent.
func (g *Graph) Dependents(table string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == table && e.From != table {
			out = append(out, e)
		}
	}
	return out
}

// DependsOn returns the names of tables the given table references,
// excluding itself.
func (g *Graph) DependsOn(table string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range g.edges {
		if e.From == table && e.To != table && !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	return out
}

// Sorted returns the table names in creation order: every table appears after
// the tables it references. Within a dependency level the schema's declaration
// order is preserved. Self-references are ignored; a genuine cycle is an
// error.
func (g *Graph) Sorted() ([]string, error) {
	indegree := map[string]int{}
	position := map[string]int{}
	for i, name := range g.schema.TableNames() {
		indegree[name] = 0
		position[name] = i
	}
	for _, e := range g.edges {
		if e.From == e.To {
			continue
		}
		// Edges to tables outside the schema do not gate creation.
		if _, ok := indegree[e.To]; !ok {
			continue
		}
		indegree[e.From]++
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })

	var order []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		var released []string
		for _, e := range g.edges {
			if e.To != name || e.From == e.To {
				continue
			}
			indegree[e.From]--
			if indegree[e.From] == 0 {
				released = append(released, e.From)
			}
		}
		sort.Slice(released, func(i, j int) bool { return position[released[i]] < position[released[j]] })
		ready = append(ready, released...)
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
	}

	if len(order) != len(indegree) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("foreign keys form a cycle involving %v", stuck)
	}
	return order, nil
}

// ReverseSorted returns the table names in deletion order: every table
// appears before the tables it references, so rows can be deleted without
// tripping foreign-key constraints.
func (g *Graph) ReverseSorted() ([]string, error) {
	order, err := g.Sorted()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
