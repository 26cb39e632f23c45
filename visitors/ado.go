package visitors

import (
	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/quoting"
	"github.com/bawdo/geosql/nodes"
)

// ADOVisitor generates SQL for Access databases reached through ADO.
// Identifiers are bracketed when needed, date-times use #...# and LIMIT
// becomes SELECT TOP n. There is no geometry type: an envelope is
// matched against the lower_x, upper_x, lower_y and upper_y columns that
// hold each row's bounding box.
type ADOVisitor struct {
	*baseVisitor
}

var _ nodes.Visitor = (*ADOVisitor)(nil)

// NewADOVisitor creates an ADOVisitor encoding functions with d.
func NewADOVisitor(d *dialect.Dialect, opts ...Option) *ADOVisitor {
	v := &ADOVisitor{}
	v.baseVisitor = newBaseVisitor(v, "ado", d)
	v.quoteIdent = quoting.IfNeeded(quoting.Bracket)
	v.limitAsTop = true
	v.envelopeIntersects = v.envelopeIntersectsSQL
	v.applyOptions(opts)
	return v
}

func (v *ADOVisitor) VisitLiteralDateTime(n *nodes.LiteralDateTime) (string, error) {
	if s, ok := v.bind(n.Value); ok {
		return s, nil
	}
	return "#" + n.Value.Format(dateTimeLayout) + "#", nil
}

func (v *ADOVisitor) VisitLiteralEnvelope(n *nodes.LiteralEnvelope) (string, error) {
	return v.boundsTest("", n), nil
}

// envelopeIntersectsSQL handles a property operand only: its qualifier,
// when kept, also qualifies the bounding-box columns.
func (v *ADOVisitor) envelopeIntersectsSQL(geom nodes.Expression, env *nodes.LiteralEnvelope) (string, bool, error) {
	p, ok := geom.(*nodes.PropertyName)
	if !ok {
		return "", false, nil
	}
	prefix := ""
	if q := p.Qualifier(); q != "" && v.scopes > 0 {
		prefix = quoting.Dotted(q, v.quoteIdent) + "."
	}
	return v.boundsTest(prefix, env), true, nil
}

func (v *ADOVisitor) boundsTest(prefix string, env *nodes.LiteralEnvelope) string {
	llx, lly := env.LowerLeft()
	urx, ury := env.UpperRight()
	return "(" + prefix + "lower_x <= " + formatFloat(urx) +
		" AND " + prefix + "upper_x >= " + formatFloat(llx) +
		" AND " + prefix + "lower_y <= " + formatFloat(ury) +
		" AND " + prefix + "upper_y >= " + formatFloat(lly) + ")"
}
