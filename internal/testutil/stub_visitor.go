// Package testutil provides shared test helpers for the geosql project.
package testutil

import "github.com/bawdo/geosql/nodes"

// StubVisitor renders a small subset of nodes as short markers so tests
// can check tree shape without a dialect. Everything else renders empty.
type StubVisitor struct {
	nodes.NopVisitor
}

var _ nodes.Visitor = StubVisitor{}

func (sv StubVisitor) VisitLiteral(*nodes.LiteralNode) (string, error)         { return "lit", nil }
func (sv StubVisitor) VisitPropertyName(n *nodes.PropertyName) (string, error) { return n.Name, nil }
func (sv StubVisitor) VisitDataSetName(n *nodes.DataSetName) (string, error)   { return n.Name, nil }
func (sv StubVisitor) VisitSelect(*nodes.Select) (string, error)               { return "select", nil }
func (sv StubVisitor) VisitInsert(*nodes.Insert) (string, error)               { return "insert", nil }

func (sv StubVisitor) VisitBinaryFunction(n *nodes.BinaryFunction) (string, error) {
	l, err := n.First.Accept(sv)
	if err != nil {
		return "", err
	}
	r, err := n.Second.Accept(sv)
	if err != nil {
		return "", err
	}
	return l + " " + n.Name + " " + r, nil
}
