package nodes

import "strings"

// PropertyName references a column (or any named property of a data set).
// The name may be qualified with dots: "city.name", "public.city.name".
type PropertyName struct {
	Name string
}

// Property creates a PropertyName.
func Property(name string) *PropertyName {
	return &PropertyName{Name: name}
}

// Star is the unqualified "*" projection.
func Star() *PropertyName {
	return &PropertyName{Name: "*"}
}

func (n *PropertyName) Accept(v Visitor) (string, error) { return v.VisitPropertyName(n) }

func (n *PropertyName) Clone() Expression { return &PropertyName{Name: n.Name} }

// LastSegment returns the name without any qualifier.
func (n *PropertyName) LastSegment() string {
	if i := strings.LastIndexByte(n.Name, '.'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Qualifier returns everything before the last dot, or "" for an
// unqualified name.
func (n *PropertyName) Qualifier() string {
	if i := strings.LastIndexByte(n.Name, '.'); i >= 0 {
		return n.Name[:i]
	}
	return ""
}

// Eq creates an equality predicate (=).
func (n *PropertyName) Eq(val any) *BinaryFunction { return EqualTo(n, Literal(val)) }

// NotEq creates an inequality predicate (<>).
func (n *PropertyName) NotEq(val any) *BinaryFunction { return NotEqualTo(n, Literal(val)) }

// Gt creates a greater-than predicate (>).
func (n *PropertyName) Gt(val any) *BinaryFunction { return GreaterThan(n, Literal(val)) }

// GtEq creates a greater-than-or-equal predicate (>=).
func (n *PropertyName) GtEq(val any) *BinaryFunction { return GreaterThanOrEqualTo(n, Literal(val)) }

// Lt creates a less-than predicate (<).
func (n *PropertyName) Lt(val any) *BinaryFunction { return LessThan(n, Literal(val)) }

// LtEq creates a less-than-or-equal predicate (<=).
func (n *PropertyName) LtEq(val any) *BinaryFunction { return LessThanOrEqualTo(n, Literal(val)) }

// Like creates a LIKE predicate with SQL's own wildcards and a backslash
// escape.
func (n *PropertyName) Like(pattern string) *Like { return NewLike(n, pattern, "%", "_", `\`) }

// In creates an IN predicate over literal values.
func (n *PropertyName) In(vals ...any) *In {
	exprs := make([]Expression, len(vals))
	for i, v := range vals {
		exprs[i] = Literal(v)
	}
	return NewIn(n.Name, exprs...)
}

// IsNull creates an IS NULL predicate.
func (n *PropertyName) IsNull() *UnaryFunction { return IsNull(n) }

// Intersects creates an ST_Intersects predicate against a geometry or
// envelope literal.
func (n *PropertyName) Intersects(other Expression) *BinaryFunction {
	return NewBinaryFunction(FuncSTIntersects, n, other)
}
