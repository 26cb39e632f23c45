package visitors

import (
	"strconv"
	"strings"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
)

// MySQLVisitor generates MySQL SQL.
// Identifiers are quoted with backticks when needed and backslashes in
// string literals are escaped.
type MySQLVisitor struct {
	*baseVisitor
}

var _ nodes.Visitor = (*MySQLVisitor)(nil)

// NewMySQLVisitor creates a MySQLVisitor encoding functions with d.
func NewMySQLVisitor(d *dialect.Dialect, opts ...Option) *MySQLVisitor {
	v := &MySQLVisitor{}
	v.baseVisitor = newBaseVisitor(v, "mysql", d)
	v.quoteIdent = quoting.IfNeeded(quoting.Backtick)
	v.escapeString = quoting.EscapeMySQLString
	v.envelopeIntersects = v.envelopeIntersectsSQL
	v.applyOptions(opts)
	return v
}

func (v *MySQLVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	if s, ok := v.bind(n.Value); ok {
		return s, nil
	}
	return "'" + n.Value.Format(dateTimeLayout) + "'", nil
}

func (v *MySQLVisitor) VisitLiteralGeometry(n *nodes.LiteralGeometry) (string, error) {
	h, err := wkbHex(n)
	if err != nil {
		return "", err
	}
	return "ST_GeomFromWKB(0x" + strings.ToUpper(h) + ", " + strconv.Itoa(n.SRID) + ")", nil
}

func (v *MySQLVisitor) VisitLiteralEnvelope(n *nodes.LiteralEnvelope) (string, error) {
	return "ST_GeomFromText(" + withSRID("'"+envelopeWKT(n)+"'", n.SRID) + ")", nil
}

func (v *MySQLVisitor) envelopeIntersectsSQL(geom nodes.Expression, env *nodes.LiteralEnvelope) (string, bool, error) {
	g, err := geom.Accept(v)
	if err != nil {
		return "", false, err
	}
	e, err := v.VisitLiteralEnvelope(env)
	if err != nil {
		return "", false, err
	}
	return "MBRIntersects(" + g + ", " + e + ")", true, nil
}
