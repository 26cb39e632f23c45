package visitors

import (
	"strconv"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
)

// SQLiteVisitor generates SQLite SQL with SpatiaLite geometry functions.
// Identifiers are double quoted when needed.
type SQLiteVisitor struct {
	*baseVisitor
}

var _ nodes.Visitor = (*SQLiteVisitor)(nil)

// NewSQLiteVisitor creates a SQLiteVisitor encoding functions with d.
func NewSQLiteVisitor(d *dialect.Dialect, opts ...Option) *SQLiteVisitor {
	v := &SQLiteVisitor{}
	v.baseVisitor = newBaseVisitor(v, "sqlite", d)
	v.quoteIdent = quoting.IfNeeded(quoting.DoubleQuote)
	v.envelopeIntersects = v.envelopeIntersectsSQL
	v.applyOptions(opts)
	return v
}

func (v *SQLiteVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	if s, ok := v.bind(n.Value); ok {
		return s, nil
	}
	return "datetime('" + n.Value.Format(dateTimeLayout) + "')", nil
}

func (v *SQLiteVisitor) VisitLiteralGeometry(n *nodes.LiteralGeometry) (string, error) {
	h, err := wkbHex(n)
	if err != nil {
		return "", err
	}
	return "GeomFromWKB(X'" + h + "', " + strconv.Itoa(n.SRID) + ")", nil
}

func (v *SQLiteVisitor) VisitLiteralEnvelope(n *nodes.LiteralEnvelope) (string, error) {
	return "BuildMbr(" + withSRID(cornerList(n), n.SRID) + ")", nil
}

func (v *SQLiteVisitor) envelopeIntersectsSQL(geom nodes.Expression, env *nodes.LiteralEnvelope) (string, bool, error) {
	g, err := geom.Accept(v)
	if err != nil {
		return "", false, err
	}
	e, err := v.VisitLiteralEnvelope(env)
	if err != nil {
		return "", false, err
	}
	return "MbrIntersects(" + g + ", " + e + ")", true, nil
}
