package nodes

import (
	"bytes"
	"time"

	"github.com/paulmach/orb"
)

// LiteralNode wraps a scalar Go value: bool, int16, int32, int64, float64
// or string. Visitors render it with the value's canonical SQL text, or as a
// bind placeholder in parameterized mode.
type LiteralNode struct {
	Value any
}

func (n *LiteralNode) Accept(v Visitor) (string, error) { return v.VisitLiteral(n) }

func (n *LiteralNode) Clone() Expression { return &LiteralNode{Value: n.Value} }

// LiteralByteArray is a binary value. It has no portable SQL spelling, so
// each backend visitor decides how (or whether) to render it.
type LiteralByteArray struct {
	Value []byte
}

func (n *LiteralByteArray) Accept(v Visitor) (string, error) { return v.VisitLiteralByteArray(n) }

func (n *LiteralByteArray) Clone() Expression {
	return &LiteralByteArray{Value: bytes.Clone(n.Value)}
}

// LiteralDateTime is a timestamp value.
type LiteralDateTime struct {
	Value time.Time
}

func (n *LiteralDateTime) Accept(v Visitor) (string, error) { return v.VisitLiteralDateTime(n) }

func (n *LiteralDateTime) Clone() Expression { return &LiteralDateTime{Value: n.Value} }

// LiteralGeometry is a geometry value in a spatial reference system.
// SRID 0 means unknown.
type LiteralGeometry struct {
	Geometry orb.Geometry
	SRID     int
}

func (n *LiteralGeometry) Accept(v Visitor) (string, error) { return v.VisitLiteralGeometry(n) }

func (n *LiteralGeometry) Clone() Expression {
	return &LiteralGeometry{Geometry: orb.Clone(n.Geometry), SRID: n.SRID}
}

// LiteralEnvelope is an axis-aligned box: Min is the lower-left corner and
// Max the upper-right one.
type LiteralEnvelope struct {
	Bound orb.Bound
	SRID  int
}

func (n *LiteralEnvelope) Accept(v Visitor) (string, error) { return v.VisitLiteralEnvelope(n) }

func (n *LiteralEnvelope) Clone() Expression {
	return &LiteralEnvelope{Bound: n.Bound, SRID: n.SRID}
}

// LowerLeft and UpperRight return the corner coordinates as
// (x, y) pairs.
func (n *LiteralEnvelope) LowerLeft() (float64, float64)  { return n.Bound.Min[0], n.Bound.Min[1] }
func (n *LiteralEnvelope) UpperRight() (float64, float64) { return n.Bound.Max[0], n.Bound.Max[1] }

func LiteralBool(v bool) *LiteralNode          { return &LiteralNode{Value: v} }
func LiteralInt16(v int16) *LiteralNode        { return &LiteralNode{Value: v} }
func LiteralInt32(v int32) *LiteralNode        { return &LiteralNode{Value: v} }
func LiteralInt64(v int64) *LiteralNode        { return &LiteralNode{Value: v} }
func LiteralDouble(v float64) *LiteralNode     { return &LiteralNode{Value: v} }
func LiteralString(v string) *LiteralNode      { return &LiteralNode{Value: v} }
func LiteralTime(v time.Time) *LiteralDateTime { return &LiteralDateTime{Value: v} }

// LiteralBytes wraps a byte slice. A nil slice is a precondition violation.
func LiteralBytes(v []byte) *LiteralByteArray {
	if v == nil {
		precondition("nil byte array literal")
	}
	return &LiteralByteArray{Value: v}
}

// LiteralGeom wraps a geometry in the given SRID.
func LiteralGeom(g orb.Geometry, srid int) *LiteralGeometry {
	if g == nil {
		precondition("nil geometry literal")
	}
	return &LiteralGeometry{Geometry: g, SRID: srid}
}

// Envelope builds a LiteralEnvelope from its corners. An envelope whose
// lower-left corner lies above or to the right of the upper-right corner
// is malformed and panics.
func Envelope(llx, lly, urx, ury float64, srid int) *LiteralEnvelope {
	if llx > urx || lly > ury {
		precondition("malformed envelope (%g %g, %g %g)", llx, lly, urx, ury)
	}
	return &LiteralEnvelope{
		Bound: orb.Bound{Min: orb.Point{llx, lly}, Max: orb.Point{urx, ury}},
		SRID:  srid,
	}
}

// Literal wraps a raw Go value into the matching literal node. If val
// already implements Expression it is returned as-is. Plain int, int8,
// uint8, uint16 and float32 are widened. A nil value panics: an absent
// value has no SQL text.
func Literal(val any) Expression {
	switch v := val.(type) {
	case nil:
		precondition("nil literal value")
	case Expression:
		return v
	case bool, int16, int32, int64, float64, string:
		return &LiteralNode{Value: v}
	case int:
		return LiteralInt64(int64(v))
	case int8:
		return LiteralInt16(int16(v))
	case uint8:
		return LiteralInt16(int16(v))
	case uint16:
		return LiteralInt32(int32(v))
	case uint32:
		return LiteralInt64(int64(v))
	case float32:
		return LiteralDouble(float64(v))
	case []byte:
		return LiteralBytes(v)
	case time.Time:
		return LiteralTime(v)
	case orb.Bound:
		return Envelope(v.Min[0], v.Min[1], v.Max[0], v.Max[1], 0)
	case orb.Geometry:
		return LiteralGeom(v, 0)
	}
	precondition("unsupported literal type %T", val)
	return nil
}
