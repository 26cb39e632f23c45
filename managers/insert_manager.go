package managers

import (
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
)

// InsertManager provides a fluent API for building INSERT statements.
type InsertManager struct {
	treeManager
	Statement *nodes.Insert
}

// NewInsertManager creates a new InsertManager targeting the given data set.
func NewInsertManager(into *nodes.DataSetName) *InsertManager {
	return &InsertManager{Statement: nodes.NewInsert(into)}
}

// Fields sets the field list for the INSERT statement.
func (m *InsertManager) Fields(names ...string) *InsertManager {
	fields := make([]*nodes.PropertyName, len(names))
	for i, n := range names {
		fields[i] = nodes.Property(n)
	}
	m.Statement.Fields = fields
	return m
}

// Values appends a row of values to the INSERT statement.
// Each call to Values adds one row. Pass raw Go values or expressions;
// raw values are wrapped with nodes.Literal automatically.
func (m *InsertManager) Values(vals ...any) *InsertManager {
	row := make([]nodes.Expression, len(vals))
	for i, v := range vals {
		row[i] = nodes.Literal(v)
	}
	m.Statement.Values = append(m.Statement.Values, row)
	return m
}

// FromSelect sets a copy of the query built by sel as the source of rows.
// The transformers registered on sel are applied at this point. Rendering
// an insert that has both rows and a select fails.
func (m *InsertManager) FromSelect(sel *SelectManager) (*InsertManager, error) {
	stmt, err := sel.Transformed()
	if err != nil {
		return nil, err
	}
	m.Statement.SetSelect(stmt)
	return m, nil
}

// Use registers a transformer plugin.
func (m *InsertManager) Use(t plugins.Transformer) *InsertManager {
	m.addTransformer(t)
	return m
}

// Transformed applies all registered transformers to a copy of the
// statement and returns the copy.
func (m *InsertManager) Transformed() (*nodes.Insert, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformInsert(stmt)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// ToSQL applies transformers and generates SQL with parameters.
func (m *InsertManager) ToSQL(v nodes.Visitor) (string, []any, error) {
	return render(v, func(v nodes.Visitor) (string, error) {
		stmt, err := m.Transformed()
		if err != nil {
			return "", err
		}
		return stmt.Accept(v)
	})
}
