package testutil

import (
	"testing"

	"github.com/bawdo/geosql/nodes"
)

// AssertSQL renders node with v and compares the text with expected.
func AssertSQL(t *testing.T, v nodes.Visitor, node nodes.Node, expected string) {
	t.Helper()
	if p, ok := v.(nodes.Parameterizer); ok {
		p.Reset()
	}
	got, err := node.Accept(v)
	if err != nil {
		t.Fatalf("unexpected error rendering %T: %v", node, err)
	}
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// AssertSQLError renders node and fails the test unless rendering returns
// an error and no text.
func AssertSQLError(t *testing.T, v nodes.Visitor, node nodes.Node) error {
	t.Helper()
	got, err := node.Accept(v)
	if err == nil {
		t.Fatalf("expected an error rendering %T, got SQL:\n  %s", node, got)
	}
	if got != "" {
		t.Errorf("expected no SQL alongside the error, got:\n  %s", got)
	}
	return err
}
