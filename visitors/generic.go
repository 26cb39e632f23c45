package visitors

import (
	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
)

// GenericVisitor generates dialect-neutral SQL. Identifiers are double
// quoted when they need it. Literal kinds without a portable spelling
// (byte arrays, date-times, geometries, envelopes) fail with
// ErrNotImplemented unless they can be bound as parameters.
type GenericVisitor struct {
	*baseVisitor
}

var (
	_ nodes.Visitor       = (*GenericVisitor)(nil)
	_ nodes.Parameterizer = (*GenericVisitor)(nil)
	_ dialect.Renderer    = (*GenericVisitor)(nil)
)

// NewGenericVisitor creates a GenericVisitor encoding functions with d.
func NewGenericVisitor(d *dialect.Dialect, opts ...Option) *GenericVisitor {
	v := &GenericVisitor{}
	v.baseVisitor = newBaseVisitor(v, "generic", d)
	v.quoteIdent = quoting.IfNeeded(quoting.DoubleQuote)
	v.applyOptions(opts)
	return v
}
