// Package nodes defines the AST used to describe SELECT and INSERT statements
// and the boolean, arithmetic and spatial expressions they carry.
package nodes

// Node is the interface that all AST nodes implement.
type Node interface {
	Accept(visitor Visitor) (string, error)
}

// Expression is a Node that can appear as a value: literals, property
// names, function calls and predicates.
type Expression interface {
	Node
	// Clone returns a deep copy that shares no mutable state with the
	// receiver.
	Clone() Expression
}

// FromItem is a Node that can appear in a FROM clause.
type FromItem interface {
	Node
	Clone() FromItem
}

// JoinCondition is the ON or USING part of a Join.
type JoinCondition interface {
	Node
	Clone() JoinCondition
}

// Query is a complete statement: a *Select or an *Insert.
type Query interface {
	Node
	query()
}

// Visitor defines the interface for walking the AST and producing output.
// Concrete visitors (generic SQL, PostGIS, MySQL, ...) implement this
// interface. Adding a node kind adds a method here, so every visitor
// must handle it before the module compiles again.
type Visitor interface {
	VisitLiteral(node *LiteralNode) (string, error)
	VisitLiteralByteArray(node *LiteralByteArray) (string, error)
	VisitLiteralDateTime(node *LiteralDateTime) (string, error)
	VisitLiteralGeometry(node *LiteralGeometry) (string, error)
	VisitLiteralEnvelope(node *LiteralEnvelope) (string, error)
	VisitPropertyName(node *PropertyName) (string, error)
	VisitFunction(node *Function) (string, error)
	VisitBinaryFunction(node *BinaryFunction) (string, error)
	VisitUnaryFunction(node *UnaryFunction) (string, error)
	VisitLike(node *Like) (string, error)
	VisitIn(node *In) (string, error)
	VisitSelect(node *Select) (string, error)
	VisitInsert(node *Insert) (string, error)
	VisitDataSetName(node *DataSetName) (string, error)
	VisitSubSelect(node *SubSelect) (string, error)
	VisitJoin(node *Join) (string, error)
	VisitJoinOn(node *JoinOn) (string, error)
	VisitJoinUsing(node *JoinUsing) (string, error)
	VisitField(node *Field) (string, error)
	VisitOrderByItem(node *OrderByItem) (string, error)
}

// Parameterizer is implemented by visitors that support parameterized queries.
// Callers use type assertion to extract collected parameters after SQL generation.
type Parameterizer interface {
	Params() []any
	Reset()
}

// NopVisitor renders every node as the empty string. Embed it in visitors
// that only care about a handful of node kinds.
type NopVisitor struct{}

var _ Visitor = NopVisitor{}

func (NopVisitor) VisitLiteral(*LiteralNode) (string, error)               { return "", nil }
func (NopVisitor) VisitLiteralByteArray(*LiteralByteArray) (string, error) { return "", nil }
func (NopVisitor) VisitLiteralDateTime(*LiteralDateTime) (string, error)   { return "", nil }
func (NopVisitor) VisitLiteralGeometry(*LiteralGeometry) (string, error)   { return "", nil }
func (NopVisitor) VisitLiteralEnvelope(*LiteralEnvelope) (string, error)   { return "", nil }
func (NopVisitor) VisitPropertyName(*PropertyName) (string, error)         { return "", nil }
func (NopVisitor) VisitFunction(*Function) (string, error)                 { return "", nil }
func (NopVisitor) VisitBinaryFunction(*BinaryFunction) (string, error)     { return "", nil }
func (NopVisitor) VisitUnaryFunction(*UnaryFunction) (string, error)       { return "", nil }
func (NopVisitor) VisitLike(*Like) (string, error)                         { return "", nil }
func (NopVisitor) VisitIn(*In) (string, error)                             { return "", nil }
func (NopVisitor) VisitSelect(*Select) (string, error)                     { return "", nil }
func (NopVisitor) VisitInsert(*Insert) (string, error)                     { return "", nil }
func (NopVisitor) VisitDataSetName(*DataSetName) (string, error)           { return "", nil }
func (NopVisitor) VisitSubSelect(*SubSelect) (string, error)               { return "", nil }
func (NopVisitor) VisitJoin(*Join) (string, error)                         { return "", nil }
func (NopVisitor) VisitJoinOn(*JoinOn) (string, error)                     { return "", nil }
func (NopVisitor) VisitJoinUsing(*JoinUsing) (string, error)               { return "", nil }
func (NopVisitor) VisitField(*Field) (string, error)                       { return "", nil }
func (NopVisitor) VisitOrderByItem(*OrderByItem) (string, error)           { return "", nil }

func cloneExprs(in []Expression) []Expression {
	if in == nil {
		return nil
	}
	out := make([]Expression, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
