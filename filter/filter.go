// Package filter models OGC Filter Encoding predicates. The tree is kept
// apart from the query AST in package nodes: it mirrors the element set
// of the wire format, and queryencoder translates it into query nodes.
package filter

import (
	"fmt"
	"slices"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrInvalidFilter is returned by Validate for a filter that cannot be
// translated.
var ErrInvalidFilter = errors.NewKind("invalid filter: %s")

// Node is implemented by every filter node.
type Node interface {
	filterNode()
}

// Op is a predicate: a spatial, comparison or logic operator.
type Op interface {
	Node
	Clone() Op
}

// Expression is an operand of a predicate.
type Expression interface {
	Node
	Clone() Expression
}

// Filter is either one operator tree or a list of feature identifiers,
// never both.
type Filter struct {
	Op  Op
	IDs []string
}

// New returns a filter holding op.
func New(op Op) *Filter {
	return &Filter{Op: op}
}

// ByIDs returns a filter selecting features by identifier.
func ByIDs(ids ...string) *Filter {
	return &Filter{IDs: slices.Clone(ids)}
}

// Clone returns a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	c := &Filter{IDs: slices.Clone(f.IDs)}
	if f.Op != nil {
		c.Op = f.Op.Clone()
	}
	return c
}

// Validate checks that exactly one of Op and IDs is set and that the
// operator tree has no missing operands.
func (f *Filter) Validate() error {
	switch {
	case f == nil:
		return ErrInvalidFilter.New("nil filter")
	case f.Op != nil && len(f.IDs) > 0:
		return ErrInvalidFilter.New("operator and identifiers are mutually exclusive")
	case f.Op == nil && len(f.IDs) == 0:
		return ErrInvalidFilter.New("empty filter")
	case f.Op == nil:
		return nil
	case isNilNode(f.Op):
		return ErrInvalidFilter.New("nil operator")
	}
	var err error
	Walk(f.Op, func(n Node) bool {
		if msg := check(n); msg != "" {
			err = ErrInvalidFilter.New(msg)
			return false
		}
		return true
	})
	return err
}

// check reports what is wrong with a single node, or "" when nothing is.
func check(n Node) string {
	switch n := n.(type) {
	case *BBOX:
		if n.Property == nil {
			return "BBOX without a property"
		}
	case *BinarySpatial:
		if n.Property == nil {
			return fmt.Sprintf("%s without a property", n.Name)
		}
		if (n.Envelope == nil) == (n.Geometry == nil) {
			return fmt.Sprintf("%s needs exactly one of envelope and geometry", n.Name)
		}
	case *DistanceBuffer:
		if n.Property == nil || n.Geometry == nil {
			return fmt.Sprintf("%s needs a property and a geometry", n.Name)
		}
		if n.Distance.Value < 0 {
			return fmt.Sprintf("%s with negative distance %g", n.Name, n.Distance.Value)
		}
	case *BinaryComparison:
		if isNilNode(n.First) || isNilNode(n.Second) {
			return fmt.Sprintf("%s with a missing operand", n.Name)
		}
	case *Between:
		if isNilNode(n.Expr) || isNilNode(n.Lower) || isNilNode(n.Upper) {
			return "PropertyIsBetween with a missing operand"
		}
	case *Like:
		if n.Property == nil || n.Literal == nil {
			return "PropertyIsLike needs a property and a pattern"
		}
	case *IsNull:
		if n.Property == nil {
			return "PropertyIsNull without a property"
		}
	case *BinaryLogic:
		if len(n.Ops) < 2 {
			return fmt.Sprintf("%s needs at least two operators, got %d", n.Name, len(n.Ops))
		}
		if slices.ContainsFunc(n.Ops, func(op Op) bool { return isNilNode(op) }) {
			return fmt.Sprintf("%s with a nil operator", n.Name)
		}
	case *Not:
		if isNilNode(n.Op) {
			return "Not without an operator"
		}
	case *BinaryOperator:
		if isNilNode(n.First) || isNilNode(n.Second) {
			return fmt.Sprintf("%s with a missing operand", n.Name)
		}
	case *Function:
		if n.Name == "" {
			return "function without a name"
		}
		if slices.ContainsFunc(n.Args, func(a Expression) bool { return isNilNode(a) }) {
			return fmt.Sprintf("function %s with a nil argument", n.Name)
		}
	case *PropertyName:
		if n.Name == "" {
			return "empty property name"
		}
	}
	return ""
}
