// Package plugins defines the Transformer interface for AST middleware.
package plugins

import (
	"github.com/bawdo/geosql/nodes"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownDataSet is returned by transformers configured for a data
// set the statement does not reference.
var ErrUnknownDataSet = errors.NewKind("data set %s is not referenced by the statement")

// Transformer is the interface that AST transformation plugins implement.
// Plugins embed BaseTransformer and override only the methods they need.
// Transformers receive a private copy of the statement and may modify it
// in place.
type Transformer interface {
	TransformSelect(sel *nodes.Select) (*nodes.Select, error)
	TransformInsert(stmt *nodes.Insert) (*nodes.Insert, error)
}

// Named is implemented by transformers that report a display name, used
// to label the conditions they add.
type Named interface {
	Name() string
}

// BaseTransformer provides no-op defaults for all Transformer methods.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(s *nodes.Select) (*nodes.Select, error) {
	return s, nil
}
func (BaseTransformer) TransformInsert(s *nodes.Insert) (*nodes.Insert, error) {
	return s, nil
}

// AddCondition ANDs cond onto the WHERE clause of sel.
func AddCondition(sel *nodes.Select, cond nodes.Expression) {
	sel.SetWhere(nodes.Conjoin(sel.Where, cond))
}
