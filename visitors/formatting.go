package visitors

import (
	"github.com/bawdo/geosql/nodes"
)

// FormattingVisitor wraps one of the backend visitors of this package and
// produces human-readable multi-line SQL: each clause of the outermost
// statement starts a line and list items are indented one per line.
// Nested statements and expressions render exactly as the inner visitor
// renders them.
type FormattingVisitor struct {
	nodes.Visitor
	base *baseVisitor
}

var (
	_ nodes.Visitor       = (*FormattingVisitor)(nil)
	_ nodes.Parameterizer = (*FormattingVisitor)(nil)
)

// backend is implemented by every visitor embedding *baseVisitor.
type backend interface {
	nodes.Visitor
	backendBase() *baseVisitor
}

func (b *baseVisitor) backendBase() *baseVisitor { return b }

// NewFormattingVisitor constructs a FormattingVisitor wrapping the given
// backend visitor. Any other visitor panics.
func NewFormattingVisitor(inner nodes.Visitor) *FormattingVisitor {
	bv, ok := inner.(backend)
	if !ok || bv.backendBase() == nil {
		panic(nodes.ErrPreconditionViolation.New("geosql: FormattingVisitor requires a backend visitor"))
	}
	return &FormattingVisitor{Visitor: inner, base: bv.backendBase()}
}

// Params returns the parameters collected by the inner visitor.
func (f *FormattingVisitor) Params() []any {
	return f.base.Params()
}

// Reset clears the parameters collected by the inner visitor.
func (f *FormattingVisitor) Reset() {
	f.base.Reset()
}

func (f *FormattingVisitor) VisitSelect(n *nodes.Select) (string, error) {
	defer f.prettyPrint()()
	return f.Visitor.VisitSelect(n)
}

func (f *FormattingVisitor) VisitInsert(n *nodes.Insert) (string, error) {
	defer f.prettyPrint()()
	return f.Visitor.VisitInsert(n)
}

// prettyPrint switches the inner visitor to the multi-line layout and
// returns the function restoring the previous one.
func (f *FormattingVisitor) prettyPrint() func() {
	saved := f.base.pretty
	f.base.pretty = true
	return func() { f.base.pretty = saved }
}
