package filter

import (
	"fmt"
	"reflect"
)

// Visitor computes a T for every concrete filter node.
type Visitor[T any] interface {
	VisitBBOX(*BBOX) (T, error)
	VisitBinarySpatial(*BinarySpatial) (T, error)
	VisitDistanceBuffer(*DistanceBuffer) (T, error)
	VisitBinaryComparison(*BinaryComparison) (T, error)
	VisitBetween(*Between) (T, error)
	VisitLike(*Like) (T, error)
	VisitIsNull(*IsNull) (T, error)
	VisitBinaryLogic(*BinaryLogic) (T, error)
	VisitNot(*Not) (T, error)
	VisitBinaryOperator(*BinaryOperator) (T, error)
	VisitFunction(*Function) (T, error)
	VisitLiteral(*Literal) (T, error)
	VisitPropertyName(*PropertyName) (T, error)
}

// Accept dispatches n to the matching method of v.
func Accept[T any](n Node, v Visitor[T]) (T, error) {
	if isNilNode(n) {
		var zero T
		return zero, ErrInvalidFilter.New("nil node")
	}
	switch n := n.(type) {
	case *BBOX:
		return v.VisitBBOX(n)
	case *BinarySpatial:
		return v.VisitBinarySpatial(n)
	case *DistanceBuffer:
		return v.VisitDistanceBuffer(n)
	case *BinaryComparison:
		return v.VisitBinaryComparison(n)
	case *Between:
		return v.VisitBetween(n)
	case *Like:
		return v.VisitLike(n)
	case *IsNull:
		return v.VisitIsNull(n)
	case *BinaryLogic:
		return v.VisitBinaryLogic(n)
	case *Not:
		return v.VisitNot(n)
	case *BinaryOperator:
		return v.VisitBinaryOperator(n)
	case *Function:
		return v.VisitFunction(n)
	case *Literal:
		return v.VisitLiteral(n)
	case *PropertyName:
		return v.VisitPropertyName(n)
	}
	var zero T
	return zero, ErrInvalidFilter.New(fmt.Sprintf("unknown node %T", n))
}

// Walk calls fn for n and then, while fn returns true, for each child of
// n in operand order. Nil children are skipped.
func Walk(n Node, fn func(Node) bool) bool {
	if isNilNode(n) {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range children(n) {
		if isNilNode(c) {
			continue
		}
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// PropertyNames lists the distinct property names referenced under n in
// the order they are first met.
func PropertyNames(n Node) []string {
	var names []string
	seen := map[string]bool{}
	Walk(n, func(n Node) bool {
		if p, ok := n.(*PropertyName); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
		return true
	})
	return names
}

func children(n Node) []Node {
	switch n := n.(type) {
	case *BBOX:
		return []Node{n.Property}
	case *BinarySpatial:
		return []Node{n.Property}
	case *DistanceBuffer:
		return []Node{n.Property}
	case *BinaryComparison:
		return []Node{n.First, n.Second}
	case *Between:
		return []Node{n.Expr, n.Lower, n.Upper}
	case *Like:
		return []Node{n.Property, n.Literal}
	case *IsNull:
		return []Node{n.Property}
	case *BinaryLogic:
		out := make([]Node, len(n.Ops))
		for i, op := range n.Ops {
			out[i] = op
		}
		return out
	case *Not:
		return []Node{n.Op}
	case *BinaryOperator:
		return []Node{n.First, n.Second}
	case *Function:
		out := make([]Node, len(n.Args))
		for i, a := range n.Args {
			out[i] = a
		}
		return out
	}
	return nil
}

// isNilNode reports whether n is nil or a typed nil pointer.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
