package visitors

import (
	"encoding/hex"
	"strconv"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
)

// PostGISVisitor generates PostgreSQL/PostGIS SQL.
// Identifiers are double quoted when needed and bind placeholders are
// numbered: $1, $2, ...
type PostGISVisitor struct {
	*baseVisitor
}

var (
	_ nodes.Visitor       = (*PostGISVisitor)(nil)
	_ nodes.Parameterizer = (*PostGISVisitor)(nil)
)

// NewPostGISVisitor creates a PostGISVisitor encoding functions with d.
func NewPostGISVisitor(d *dialect.Dialect, opts ...Option) *PostGISVisitor {
	v := &PostGISVisitor{}
	v.baseVisitor = newBaseVisitor(v, "postgis", d)
	v.quoteIdent = quoting.IfNeeded(quoting.DoubleQuote)
	v.placeholder = func(i int) string { return "$" + strconv.Itoa(i) }
	v.envelopeIntersects = v.envelopeIntersectsSQL
	v.applyOptions(opts)
	return v
}

func (v *PostGISVisitor) VisitLiteralByteArray(n *nodes.LiteralByteArray) (string, error) {
	if s, ok := v.bind(n.Value); ok {
		return s, nil
	}
	return "decode('" + hex.EncodeToString(n.Value) + "', 'hex')", nil
}

func (v *PostGISVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	if s, ok := v.bind(n.Value); ok {
		return s, nil
	}
	return "TIMESTAMP '" + n.Value.Format(dateTimeLayout) + "'", nil
}

func (v *PostGISVisitor) VisitLiteralGeometry(n *nodes.LiteralGeometry) (string, error) {
	h, err := wkbHex(n)
	if err != nil {
		return "", err
	}
	return "ST_GeomFromWKB(decode('" + h + "', 'hex'), " + strconv.Itoa(n.SRID) + ")", nil
}

func (v *PostGISVisitor) VisitLiteralEnvelope(n *nodes.LiteralEnvelope) (string, error) {
	return "ST_MakeEnvelope(" + withSRID(cornerList(n), n.SRID) + ")", nil
}

// envelopeIntersectsSQL uses the && bounding-box operator, which the GiST
// index on the geometry column can answer directly.
func (v *PostGISVisitor) envelopeIntersectsSQL(geom nodes.Expression, env *nodes.LiteralEnvelope) (string, bool, error) {
	g, err := geom.Accept(v)
	if err != nil {
		return "", false, err
	}
	e, err := v.VisitLiteralEnvelope(env)
	if err != nil {
		return "", false, err
	}
	return g + " && " + e, true, nil
}
