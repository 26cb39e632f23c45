// Package queryencoder translates Filter Encoding trees into query
// expressions that any backend visitor can render.
package queryencoder

import (
	"fmt"
	"io"

	"github.com/bawdo/geosql/filter"
	"github.com/bawdo/geosql/nodes"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// names maps filter operator names to the function names looked up in a
// dialect.
var names = map[string]string{
	string(filter.Equals):     nodes.FuncSTEquals,
	string(filter.Disjoint):   nodes.FuncSTDisjoint,
	string(filter.Touches):    nodes.FuncSTTouches,
	string(filter.Within):     nodes.FuncSTWithin,
	string(filter.Overlaps):   nodes.FuncSTOverlaps,
	string(filter.Crosses):    nodes.FuncSTCrosses,
	string(filter.Intersects): nodes.FuncSTIntersects,
	string(filter.Contains):   nodes.FuncSTContains,

	string(filter.DWithin): nodes.FuncSTDWithin,
	string(filter.Beyond):  nodes.FuncSTBeyond,

	string(filter.EqualTo):              nodes.FuncEqualTo,
	string(filter.NotEqualTo):           nodes.FuncNotEqualTo,
	string(filter.LessThan):             nodes.FuncLessThan,
	string(filter.GreaterThan):          nodes.FuncGreaterThan,
	string(filter.LessThanOrEqualTo):    nodes.FuncLessThanOrEqualTo,
	string(filter.GreaterThanOrEqualTo): nodes.FuncGreaterThanOrEqualTo,

	string(filter.And): nodes.FuncAnd,
	string(filter.Or):  nodes.FuncOr,

	string(filter.Add): nodes.FuncAdd,
	string(filter.Sub): nodes.FuncSub,
	string(filter.Mul): nodes.FuncMul,
	string(filter.Div): nodes.FuncDiv,

	"BBOX": nodes.FuncSTIntersects,
	"Not":  nodes.FuncNot,
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithIDProperty names the property identifier filters select on.
func WithIDProperty(name string) Option {
	return func(e *Encoder) { e.idProperty = name }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Encoder) { e.logger = l }
}

// Encoder translates filter trees. It holds no per-call state and may
// be shared.
type Encoder struct {
	idProperty string
	logger     logrus.FieldLogger
}

var _ filter.Visitor[nodes.Expression] = (*Encoder)(nil)

// New creates an Encoder.
func New(opts ...Option) *Encoder {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	e := &Encoder{logger: discard}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithField("component", "queryencoder")
	return e
}

// Encode validates f and translates it. An identifier filter becomes an
// IN over the id property; without WithIDProperty that IN has an empty
// property, which the caller must fill in before rendering.
func (e *Encoder) Encode(f *filter.Filter) (nodes.Expression, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Op != nil {
		return e.EncodeOp(f.Op)
	}
	if e.idProperty == "" {
		e.logger.WithField("ids", len(f.IDs)).Debug("identifier filter without id property")
	}
	in := nodes.NewIn(e.idProperty)
	for _, id := range f.IDs {
		in.Add(nodes.LiteralString(id))
	}
	return in, nil
}

// EncodeOp translates an operator tree without validating it first. Nil
// operators and operands are reported as ErrInvalidFilter.
func (e *Encoder) EncodeOp(op filter.Op) (nodes.Expression, error) {
	return filter.Accept[nodes.Expression](op, e)
}

// EncodeExpression translates an operand.
func (e *Encoder) EncodeExpression(x filter.Expression) (nodes.Expression, error) {
	return filter.Accept[nodes.Expression](x, e)
}

func (e *Encoder) VisitBBOX(op *filter.BBOX) (nodes.Expression, error) {
	env, err := envelope(op.Envelope, op.SRID)
	if err != nil {
		return nil, err
	}
	prop, err := property(op.Property, "BBOX")
	if err != nil {
		return nil, err
	}
	return nodes.NewFunction(names["BBOX"], prop, env), nil
}

func (e *Encoder) VisitBinarySpatial(op *filter.BinarySpatial) (nodes.Expression, error) {
	prop, err := property(op.Property, string(op.Name))
	if err != nil {
		return nil, err
	}
	var operand nodes.Expression
	switch {
	case op.Envelope != nil:
		env, err := envelope(*op.Envelope, op.SRID)
		if err != nil {
			return nil, err
		}
		operand = env
	case op.Geometry != nil:
		operand = nodes.LiteralGeom(op.Geometry, op.SRID)
	default:
		return nil, filter.ErrInvalidFilter.New(fmt.Sprintf("%s without envelope or geometry", op.Name))
	}
	return nodes.NewBinaryFunction(names[string(op.Name)], prop, operand), nil
}

func (e *Encoder) VisitDistanceBuffer(op *filter.DistanceBuffer) (nodes.Expression, error) {
	prop, err := property(op.Property, string(op.Name))
	if err != nil {
		return nil, err
	}
	if op.Geometry == nil {
		return nil, filter.ErrInvalidFilter.New(fmt.Sprintf("%s without geometry", op.Name))
	}
	if op.Distance.Units != "" {
		e.logger.WithField("units", op.Distance.Units).Debug("distance units are passed through unconverted")
	}
	return nodes.NewFunction(names[string(op.Name)],
		prop,
		nodes.LiteralGeom(op.Geometry, op.SRID),
		nodes.LiteralDouble(op.Distance.Value)), nil
}

func (e *Encoder) VisitBinaryComparison(op *filter.BinaryComparison) (nodes.Expression, error) {
	first, err := e.EncodeExpression(op.First)
	if err != nil {
		return nil, err
	}
	second, err := e.EncodeExpression(op.Second)
	if err != nil {
		return nil, err
	}
	if !op.MatchCase {
		first = nodes.NewFunction(nodes.FuncUpper, first)
		second = nodes.NewFunction(nodes.FuncUpper, second)
	}
	return nodes.NewBinaryFunction(names[string(op.Name)], first, second), nil
}

// VisitBetween encodes lower < expr < upper; both bounds are exclusive.
func (e *Encoder) VisitBetween(op *filter.Between) (nodes.Expression, error) {
	expr, err := e.EncodeExpression(op.Expr)
	if err != nil {
		return nil, err
	}
	lower, err := e.EncodeExpression(op.Lower)
	if err != nil {
		return nil, err
	}
	upper, err := e.EncodeExpression(op.Upper)
	if err != nil {
		return nil, err
	}
	return nodes.And(nodes.GreaterThan(expr, lower), nodes.LessThan(expr.Clone(), upper)), nil
}

func (e *Encoder) VisitLike(op *filter.Like) (nodes.Expression, error) {
	prop, err := property(op.Property, "PropertyIsLike")
	if err != nil {
		return nil, err
	}
	if op.Literal == nil {
		return nil, filter.ErrInvalidFilter.New("PropertyIsLike without a pattern")
	}
	return nodes.NewLike(prop, op.Literal.Value, op.WildCard, op.SingleChar, op.EscapeChar), nil
}

func (e *Encoder) VisitIsNull(op *filter.IsNull) (nodes.Expression, error) {
	prop, err := property(op.Property, "PropertyIsNull")
	if err != nil {
		return nil, err
	}
	return nodes.IsNull(prop), nil
}

func (e *Encoder) VisitBinaryLogic(op *filter.BinaryLogic) (nodes.Expression, error) {
	args := make([]nodes.Expression, 0, len(op.Ops))
	for _, child := range op.Ops {
		arg, err := e.EncodeOp(child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return nodes.NewFunction(names[string(op.Name)], args...), nil
}

func (e *Encoder) VisitNot(op *filter.Not) (nodes.Expression, error) {
	arg, err := e.EncodeOp(op.Op)
	if err != nil {
		return nil, err
	}
	return nodes.NewUnaryFunction(names["Not"], arg), nil
}

func (e *Encoder) VisitBinaryOperator(x *filter.BinaryOperator) (nodes.Expression, error) {
	first, err := e.EncodeExpression(x.First)
	if err != nil {
		return nil, err
	}
	second, err := e.EncodeExpression(x.Second)
	if err != nil {
		return nil, err
	}
	return nodes.NewBinaryFunction(names[string(x.Name)], first, second), nil
}

func (e *Encoder) VisitFunction(x *filter.Function) (nodes.Expression, error) {
	args := make([]nodes.Expression, 0, len(x.Args))
	for _, a := range x.Args {
		arg, err := e.EncodeExpression(a)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return nodes.NewFunction(x.Name, args...), nil
}

func (e *Encoder) VisitLiteral(x *filter.Literal) (nodes.Expression, error) {
	return nodes.LiteralString(x.Value), nil
}

func (e *Encoder) VisitPropertyName(x *filter.PropertyName) (nodes.Expression, error) {
	return nodes.Property(x.Name), nil
}

func property(p *filter.PropertyName, op string) (*nodes.PropertyName, error) {
	if p == nil {
		return nil, filter.ErrInvalidFilter.New(op + " without a property")
	}
	return nodes.Property(p.Name), nil
}

func envelope(b orb.Bound, srid int) (nodes.Expression, error) {
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return nil, filter.ErrInvalidFilter.New(fmt.Sprintf("malformed envelope %v", b))
	}
	return nodes.Envelope(b.Min[0], b.Min[1], b.Max[0], b.Max[1], srid), nil
}
