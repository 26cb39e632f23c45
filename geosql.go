// Package geosql builds spatial SQL for PostGIS, MySQL, SpatiaLite and ADO
// from a single query tree.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/geosql/managers (query builders)
//   - github.com/bawdo/geosql/nodes (AST nodes)
//   - github.com/bawdo/geosql/filter (filter expressions)
//   - github.com/bawdo/geosql/visitors (SQL generation)
//   - github.com/bawdo/geosql/plugins (query transformers)
package geosql

import (
	"slices"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/filter"
	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/bawdo/geosql/managers"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/queryencoder"
	"github.com/bawdo/geosql/visitors"
	"github.com/paulmach/orb"
)

// --- Errors ---

var (
	// ErrUnsupportedFunction is returned when a dialect has no mapping for a function.
	ErrUnsupportedFunction = dialect.ErrUnsupportedFunction
	// ErrNotImplemented is returned when a backend cannot render a node.
	ErrNotImplemented = visitors.ErrNotImplemented
	// ErrPreconditionViolation reports a malformed tree.
	ErrPreconditionViolation = nodes.ErrPreconditionViolation
	ErrUnknownBackend        = visitors.ErrUnknownBackend
	ErrInvalidDocument       = querydoc.ErrInvalidDocument
)

// --- Manager Types ---

// SelectManager provides a fluent API for building SELECT queries.
type SelectManager = managers.SelectManager

// InsertManager provides a fluent API for building INSERT queries.
type InsertManager = managers.InsertManager

// NewSelect creates a new SelectManager reading from the given item.
func NewSelect(from nodes.FromItem) *SelectManager {
	return managers.NewSelectManager(from)
}

// NewInsert creates a new InsertManager for inserting into the given data set.
func NewInsert(into *nodes.DataSetName) *InsertManager {
	return managers.NewInsertManager(into)
}

// --- Core Node Types ---

// Node is the base interface all AST nodes implement.
type Node = nodes.Node

// Expression is a node producing a value.
type Expression = nodes.Expression

// Visitor renders a tree.
type Visitor = nodes.Visitor

// DataSet creates a data set (table or layer) reference.
func DataSet(name string) *nodes.DataSetName {
	return nodes.DataSet(name)
}

// Property creates a property (column) reference.
func Property(name string) *nodes.PropertyName {
	return nodes.Property(name)
}

// Literal wraps a Go value as a literal.
func Literal(value any) Expression {
	return nodes.Literal(value)
}

// Geometry wraps a geometry as a literal in the given SRID.
func Geometry(g orb.Geometry, srid int) *nodes.LiteralGeometry {
	return nodes.LiteralGeom(g, srid)
}

// Envelope creates a bounding box literal.
func Envelope(minX, minY, maxX, maxY float64, srid int) *nodes.LiteralEnvelope {
	return nodes.Envelope(minX, minY, maxX, maxY, srid)
}

// --- Filters ---

// Encode translates a filter into an expression of the query tree.
func Encode(f *filter.Filter, opts ...queryencoder.Option) (Expression, error) {
	return queryencoder.New(opts...).Encode(f)
}

// --- Visitors ---

// NewVisitor creates the visitor of backend with its builtin dialect.
func NewVisitor(backend string, opts ...visitors.Option) (Visitor, error) {
	if !slices.Contains(visitors.Backends, backend) {
		return nil, visitors.ErrUnknownBackend.New(backend)
	}
	d, err := dialect.Builtin(visitors.DefaultDialect(backend))
	if err != nil {
		return nil, err
	}
	return visitors.New(backend, d, opts...)
}

// WithParams makes visitors bind literals as parameters.
func WithParams() visitors.Option {
	return visitors.WithParams()
}

// RenderDocument renders a YAML query document for backend.
func RenderDocument(src []byte, backend string, opts ...visitors.Option) (string, []any, error) {
	doc, err := querydoc.Parse(src)
	if err != nil {
		return "", nil, err
	}
	q, err := querydoc.Build(doc)
	if err != nil {
		return "", nil, err
	}
	v, err := NewVisitor(backend, opts...)
	if err != nil {
		return "", nil, err
	}
	return q.ToSQL(v)
}
