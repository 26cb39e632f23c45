// Package managers provides high-level fluent APIs for building SQL ASTs.
package managers

import (
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
	"github.com/bawdo/geosql/visitors"
)

// SelectManager provides a fluent API for building SELECT queries.
// It wraps a nodes.Select and applies transformer plugins before SQL
// generation.
type SelectManager struct {
	treeManager
	Statement *nodes.Select
}

// NewSelectManager creates a new SelectManager with the given from-item.
// If from is nil, the FROM clause is left unset.
func NewSelectManager(from nodes.FromItem) *SelectManager {
	sel := nodes.NewSelect()
	if from != nil {
		sel.SetFrom(from)
	}
	return &SelectManager{Statement: sel}
}

// Select sets the field list, replacing any existing fields.
func (m *SelectManager) Select(exprs ...nodes.Expression) *SelectManager {
	fields := make([]*nodes.Field, len(exprs))
	for i, e := range exprs {
		fields[i] = nodes.NewField(e, "")
	}
	m.Statement.Fields = fields
	return m
}

// Field appends one aliased field.
func (m *SelectManager) Field(expr nodes.Expression, alias string) *SelectManager {
	m.Statement.Fields = append(m.Statement.Fields, nodes.NewField(expr, alias))
	return m
}

// Distinct enables or disables the DISTINCT modifier on the SELECT clause.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	if len(on) == 0 || on[0] {
		m.Statement.Distinct = nodes.Distinct{}
	} else {
		m.Statement.Distinct = nil
	}
	return m
}

// DistinctOn sets the DISTINCT ON expressions.
func (m *SelectManager) DistinctOn(exprs ...nodes.Expression) *SelectManager {
	m.Statement.Distinct = nodes.Distinct(exprs)
	return m
}

// Where ANDs one or more conditions onto the WHERE clause.
func (m *SelectManager) Where(conditions ...nodes.Expression) *SelectManager {
	for _, c := range conditions {
		plugins.AddCondition(m.Statement, c)
	}
	return m
}

// From replaces the FROM list.
func (m *SelectManager) From(items ...nodes.FromItem) *SelectManager {
	m.Statement.SetFrom(items...)
	return m
}

// Join joins item to the last FROM item and returns a JoinContext for
// specifying the condition. The default join type is InnerJoin.
func (m *SelectManager) Join(item nodes.FromItem, joinTypes ...nodes.JoinType) *JoinContext {
	jt := nodes.InnerJoin
	if len(joinTypes) > 0 {
		jt = joinTypes[0]
	}
	return &JoinContext{manager: m, join: m.join(item, jt)}
}

// InnerJoin is a convenience for Join with InnerJoin type.
func (m *SelectManager) InnerJoin(item nodes.FromItem) *JoinContext {
	return m.Join(item, nodes.InnerJoin)
}

// LeftJoin is a convenience for Join with LeftJoin type.
func (m *SelectManager) LeftJoin(item nodes.FromItem) *JoinContext {
	return m.Join(item, nodes.LeftJoin)
}

// RightJoin is a convenience for Join with RightJoin type.
func (m *SelectManager) RightJoin(item nodes.FromItem) *JoinContext {
	return m.Join(item, nodes.RightJoin)
}

// FullOuterJoin is a convenience for Join with FullOuterJoin type.
func (m *SelectManager) FullOuterJoin(item nodes.FromItem) *JoinContext {
	return m.Join(item, nodes.FullOuterJoin)
}

// CrossJoin adds a cross join (no condition).
func (m *SelectManager) CrossJoin(item nodes.FromItem) *SelectManager {
	m.join(item, nodes.CrossJoin)
	return m
}

// NaturalJoin adds a natural join of the given type (no condition).
func (m *SelectManager) NaturalJoin(item nodes.FromItem, joinTypes ...nodes.JoinType) *SelectManager {
	jt := nodes.PlainJoin
	if len(joinTypes) > 0 {
		jt = joinTypes[0]
	}
	m.join(item, jt).Natural = true
	return m
}

// join replaces the last FROM item with a join of it and item. Joining
// with an empty FROM list panics.
func (m *SelectManager) join(item nodes.FromItem, jt nodes.JoinType) *nodes.Join {
	from := m.Statement.From
	var last nodes.FromItem
	if len(from) > 0 {
		last = from[len(from)-1]
	}
	j := nodes.NewJoin(last, item, jt, nil)
	if len(from) > 0 {
		from[len(from)-1] = j
	}
	return j
}

// GroupBy appends one or more expressions to the GROUP BY clause.
func (m *SelectManager) GroupBy(exprs ...nodes.Expression) *SelectManager {
	m.Statement.GroupBy = append(m.Statement.GroupBy, exprs...)
	return m
}

// Having ANDs one or more conditions onto the HAVING clause.
func (m *SelectManager) Having(conditions ...nodes.Expression) *SelectManager {
	for _, c := range conditions {
		m.Statement.SetHaving(nodes.Conjoin(m.Statement.Having, c))
	}
	return m
}

// OrderBy appends an ORDER BY item.
func (m *SelectManager) OrderBy(expr nodes.Expression, order nodes.SortOrder) *SelectManager {
	m.Statement.OrderBy = append(m.Statement.OrderBy, nodes.NewOrderByItem(expr, order))
	return m
}

// Limit sets the LIMIT value. Zero removes it.
func (m *SelectManager) Limit(n uint64) *SelectManager {
	m.Statement.Limit = n
	return m
}

// Offset sets the OFFSET value. Zero removes it.
func (m *SelectManager) Offset(n uint64) *SelectManager {
	m.Statement.Offset = n
	return m
}

// Use registers a transformer plugin to be applied before SQL generation.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// Transformed applies all registered transformers to a copy of the
// statement and returns the copy. The manager's statement is unchanged.
func (m *SelectManager) Transformed() (*nodes.Select, error) {
	sel, _, err := m.transform(nil)
	return sel, err
}

// transform runs the pipeline on a clone. When prov is not nil, the
// conditions each transformer ANDs onto WHERE are marked with its name.
func (m *SelectManager) transform(prov *visitors.Provenance) (*nodes.Select, *visitors.Provenance, error) {
	sel := m.Statement.Clone()
	for i, t := range m.transformers {
		before := sel.Where
		var err error
		sel, err = t.TransformSelect(sel)
		if err != nil {
			return nil, nil, err
		}
		markAdded(prov, i, t, before, sel.Where)
	}
	return sel, prov, nil
}

// ToSQL applies all registered transformers and generates SQL with parameters.
// Returns SQL string, parameter values (if parameterised), and any error.
// Parameters are collected automatically when the visitor has parameterisation enabled.
func (m *SelectManager) ToSQL(v nodes.Visitor) (string, []any, error) {
	return render(v, func(v nodes.Visitor) (string, error) {
		sel, err := m.Transformed()
		if err != nil {
			return "", err
		}
		return sel.Accept(v)
	})
}

// ToDot renders the transformed statement as a Graphviz graph. Conditions
// added by transformers are grouped in a cluster named after the
// transformer.
func (m *SelectManager) ToDot() (string, error) {
	sel, prov, err := m.transform(visitors.NewProvenance())
	if err != nil {
		return "", err
	}
	dv := visitors.NewDotVisitor()
	dv.SetProvenance(prov)
	if _, err := sel.Accept(dv); err != nil {
		return "", err
	}
	return dv.ToDot(), nil
}

// As wraps a copy of the statement in a SubSelect, for use as a named
// from-item.
func (m *SelectManager) As(alias string) *nodes.SubSelect {
	return nodes.NewSubSelect(m.Statement.Clone(), alias)
}
