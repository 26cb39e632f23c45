package filter

import (
	"github.com/paulmach/orb"
)

// SpatialOperator names a binary spatial operator.
type SpatialOperator string

const (
	Equals     SpatialOperator = "Equals"
	Disjoint   SpatialOperator = "Disjoint"
	Touches    SpatialOperator = "Touches"
	Within     SpatialOperator = "Within"
	Overlaps   SpatialOperator = "Overlaps"
	Crosses    SpatialOperator = "Crosses"
	Intersects SpatialOperator = "Intersects"
	Contains   SpatialOperator = "Contains"
)

// DistanceOperator names a distance buffer operator.
type DistanceOperator string

const (
	DWithin DistanceOperator = "DWithin"
	Beyond  DistanceOperator = "Beyond"
)

// ComparisonOperator names a binary comparison.
type ComparisonOperator string

const (
	EqualTo              ComparisonOperator = "PropertyIsEqualTo"
	NotEqualTo           ComparisonOperator = "PropertyIsNotEqualTo"
	LessThan             ComparisonOperator = "PropertyIsLessThan"
	GreaterThan          ComparisonOperator = "PropertyIsGreaterThan"
	LessThanOrEqualTo    ComparisonOperator = "PropertyIsLessThanOrEqualTo"
	GreaterThanOrEqualTo ComparisonOperator = "PropertyIsGreaterThanOrEqualTo"
)

// LogicOperator names a binary logic operator.
type LogicOperator string

const (
	And LogicOperator = "And"
	Or  LogicOperator = "Or"
)

// BBOX holds when the property's geometry intersects the envelope.
type BBOX struct {
	Property *PropertyName
	Envelope orb.Bound
	SRID     int
}

func NewBBOX(property string, env orb.Bound, srid int) *BBOX {
	return &BBOX{Property: Property(property), Envelope: env, SRID: srid}
}

func (*BBOX) filterNode() {}

func (o *BBOX) Clone() Op {
	return &BBOX{Property: clonePropertyName(o.Property), Envelope: o.Envelope, SRID: o.SRID}
}

// BinarySpatial tests a property against either an envelope or a
// geometry.
type BinarySpatial struct {
	Name     SpatialOperator
	Property *PropertyName
	Envelope *orb.Bound
	Geometry orb.Geometry
	SRID     int
}

// NewBinarySpatial compares a property against a geometry.
func NewBinarySpatial(name SpatialOperator, property string, g orb.Geometry, srid int) *BinarySpatial {
	return &BinarySpatial{Name: name, Property: Property(property), Geometry: g, SRID: srid}
}

// NewBinarySpatialEnvelope compares a property against an envelope.
func NewBinarySpatialEnvelope(name SpatialOperator, property string, env orb.Bound, srid int) *BinarySpatial {
	return &BinarySpatial{Name: name, Property: Property(property), Envelope: &env, SRID: srid}
}

func (*BinarySpatial) filterNode() {}

func (o *BinarySpatial) Clone() Op {
	c := &BinarySpatial{Name: o.Name, Property: clonePropertyName(o.Property), SRID: o.SRID}
	if o.Envelope != nil {
		env := *o.Envelope
		c.Envelope = &env
	}
	if o.Geometry != nil {
		c.Geometry = orb.Clone(o.Geometry)
	}
	return c
}

// Distance is a buffer distance with its unit of measure.
type Distance struct {
	Value float64
	Units string
}

// DistanceBuffer holds when the property's geometry is within (DWithin)
// or beyond (Beyond) the distance of a geometry.
type DistanceBuffer struct {
	Name     DistanceOperator
	Property *PropertyName
	Geometry orb.Geometry
	SRID     int
	Distance Distance
}

func NewDistanceBuffer(name DistanceOperator, property string, g orb.Geometry, srid int, d Distance) *DistanceBuffer {
	return &DistanceBuffer{Name: name, Property: Property(property), Geometry: g, SRID: srid, Distance: d}
}

func (*DistanceBuffer) filterNode() {}

func (o *DistanceBuffer) Clone() Op {
	c := &DistanceBuffer{Name: o.Name, Property: clonePropertyName(o.Property), SRID: o.SRID, Distance: o.Distance}
	if o.Geometry != nil {
		c.Geometry = orb.Clone(o.Geometry)
	}
	return c
}

// BinaryComparison compares two expressions. MatchCase false asks for a
// case insensitive comparison.
type BinaryComparison struct {
	Name          ComparisonOperator
	First, Second Expression
	MatchCase     bool
}

// NewComparison creates a case sensitive comparison.
func NewComparison(name ComparisonOperator, first, second Expression) *BinaryComparison {
	return &BinaryComparison{Name: name, First: first, Second: second, MatchCase: true}
}

func (*BinaryComparison) filterNode() {}

func (o *BinaryComparison) Clone() Op {
	return &BinaryComparison{Name: o.Name, First: cloneExpr(o.First), Second: cloneExpr(o.Second), MatchCase: o.MatchCase}
}

// Between holds when Lower < Expr < Upper.
type Between struct {
	Expr, Lower, Upper Expression
}

func NewBetween(expr, lower, upper Expression) *Between {
	return &Between{Expr: expr, Lower: lower, Upper: upper}
}

func (*Between) filterNode() {}

func (o *Between) Clone() Op {
	return &Between{Expr: cloneExpr(o.Expr), Lower: cloneExpr(o.Lower), Upper: cloneExpr(o.Upper)}
}

// Like matches a property against a pattern written with the given
// wildcard, single character and escape markers.
type Like struct {
	Property   *PropertyName
	Literal    *Literal
	WildCard   string
	SingleChar string
	EscapeChar string
}

func NewLike(property, pattern, wildCard, singleChar, escapeChar string) *Like {
	return &Like{
		Property:   Property(property),
		Literal:    NewLiteral(pattern),
		WildCard:   wildCard,
		SingleChar: singleChar,
		EscapeChar: escapeChar,
	}
}

func (*Like) filterNode() {}

func (o *Like) Clone() Op {
	c := *o
	c.Property = clonePropertyName(o.Property)
	if o.Literal != nil {
		c.Literal = &Literal{Value: o.Literal.Value}
	}
	return &c
}

// IsNull holds when the property has no value.
type IsNull struct {
	Property *PropertyName
}

func NewIsNull(property string) *IsNull {
	return &IsNull{Property: Property(property)}
}

func (*IsNull) filterNode() {}

func (o *IsNull) Clone() Op { return &IsNull{Property: clonePropertyName(o.Property)} }

// BinaryLogic combines two or more operators.
type BinaryLogic struct {
	Name LogicOperator
	Ops  []Op
}

func NewAnd(ops ...Op) *BinaryLogic { return &BinaryLogic{Name: And, Ops: ops} }
func NewOr(ops ...Op) *BinaryLogic  { return &BinaryLogic{Name: Or, Ops: ops} }

func (*BinaryLogic) filterNode() {}

func (o *BinaryLogic) Clone() Op {
	ops := make([]Op, len(o.Ops))
	for i, op := range o.Ops {
		if op != nil {
			ops[i] = op.Clone()
		}
	}
	return &BinaryLogic{Name: o.Name, Ops: ops}
}

// Not negates an operator.
type Not struct {
	Op Op
}

func NewNot(op Op) *Not { return &Not{Op: op} }

func (*Not) filterNode() {}

func (o *Not) Clone() Op {
	if o.Op == nil {
		return &Not{}
	}
	return &Not{Op: o.Op.Clone()}
}

func clonePropertyName(p *PropertyName) *PropertyName {
	if p == nil {
		return nil
	}
	return &PropertyName{Name: p.Name}
}

func cloneExpr(e Expression) Expression {
	if e == nil {
		return nil
	}
	return e.Clone()
}
