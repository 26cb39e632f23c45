package objectid

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/bawdo/geosql/nodes"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrInvalidValue is returned when an identifying value cannot be
// converted to the type declared for its property.
var ErrInvalidValue = errors.NewKind("value %q is not a valid %s for property %s")

// PropertyType is the declared type of an identifying property.
type PropertyType int

const (
	String PropertyType = iota
	Int16
	Int32
	Int64
	Double
	Bool
	DateTime
	UUID
)

var propertyTypeNames = [...]string{
	String:   "string",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Double:   "double",
	Bool:     "bool",
	DateTime: "datetime",
	UUID:     "uuid",
}

func (t PropertyType) String() string {
	if int(t) < len(propertyTypeNames) {
		return propertyTypeNames[t]
	}
	return fmt.Sprintf("PropertyType(%d)", int(t))
}

// ParsePropertyType returns the type named s, as printed by String.
func ParsePropertyType(s string) (PropertyType, error) {
	for i, name := range propertyTypeNames {
		if strings.EqualFold(s, name) {
			return PropertyType(i), nil
		}
	}
	return 0, nodes.ErrPreconditionViolation.New("unknown property type " + s)
}

// Property describes one identifying property: its name, the position of
// its value inside each ObjectId and its type.
type Property struct {
	Name     string
	Position int
	Type     PropertyType
}

// Set is an ordered set of ObjectIds sharing the same identifying
// properties. Members are kept sorted, so iteration order and the
// generated restriction are deterministic.
type Set struct {
	properties []Property
	members    []*ObjectId
}

// NewSet creates an empty set with no identifying properties.
func NewSet() *Set {
	return &Set{}
}

// AddProperty registers an identifying property. Properties must be
// registered before the first member is added.
func (s *Set) AddProperty(name string, pos int, typ PropertyType) error {
	switch {
	case len(s.members) > 0:
		return nodes.ErrPreconditionViolation.New("cannot add property " + name + " to a non-empty object id set")
	case name == "":
		return nodes.ErrPreconditionViolation.New("identifying property without a name")
	case pos < 0:
		return nodes.ErrPreconditionViolation.New(fmt.Sprintf("property %s has negative position %d", name, pos))
	}
	s.properties = append(s.properties, Property{Name: name, Position: pos, Type: typ})
	return nil
}

// Properties returns the identifying properties in registration order.
func (s *Set) Properties() []Property {
	return slices.Clone(s.properties)
}

// Add inserts id, converting each value to its property type. Adding an
// identity already present is a no-op.
func (s *Set) Add(id *ObjectId) error {
	norm, err := s.normalize(id)
	if err != nil {
		return err
	}
	i, found := s.search(norm)
	if !found {
		s.members = slices.Insert(s.members, i, norm)
	}
	return nil
}

// Contains reports whether an identity equal to id is in the set.
func (s *Set) Contains(id *ObjectId) bool {
	norm, err := s.normalize(id)
	if err != nil {
		return false
	}
	_, found := s.search(norm)
	return found
}

// Remove deletes id from the set and reports whether it was present.
func (s *Set) Remove(id *ObjectId) bool {
	norm, err := s.normalize(id)
	if err != nil {
		return false
	}
	i, found := s.search(norm)
	if found {
		s.members = slices.Delete(s.members, i, i+1)
	}
	return found
}

// Size returns the number of members.
func (s *Set) Size() int {
	return len(s.members)
}

// Clear removes every member. The identifying properties are kept.
func (s *Set) Clear() {
	s.members = nil
}

// All yields the members in order.
func (s *Set) All() iter.Seq[*ObjectId] {
	return func(yield func(*ObjectId) bool) {
		for _, id := range s.members {
			if !yield(id) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{properties: slices.Clone(s.properties)}
	if s.members != nil {
		c.members = make([]*ObjectId, len(s.members))
		for i, id := range s.members {
			c.members[i] = id.Clone()
		}
	}
	return c
}

// Union moves the members of other that are not in s into s, converting
// them to the property types of s. other is left empty. A set without
// properties takes those of other. Union of a set with itself is a no-op.
func (s *Set) Union(other *Set) error {
	if other == s {
		return nil
	}
	if len(s.properties) == 0 {
		s.properties = slices.Clone(other.properties)
	}
	norms := make([]*ObjectId, 0, len(other.members))
	for _, id := range other.members {
		norm, err := s.normalize(id)
		if err != nil {
			return err
		}
		norms = append(norms, norm)
	}
	for _, id := range norms {
		if i, found := s.search(id); !found {
			s.members = slices.Insert(s.members, i, id)
		}
	}
	other.Clear()
	return nil
}

// Difference removes from s every member also present in other.
func (s *Set) Difference(other *Set) {
	if other == s {
		s.Clear()
		return
	}
	if len(s.members) == 0 || len(other.members) == 0 {
		return
	}
	s.members = slices.DeleteFunc(s.members, func(id *ObjectId) bool {
		_, found := other.search(id)
		return found
	})
}

// SymDifference leaves in s the members present in exactly one of s and
// other, converting those taken from other to the property types of s.
// other is not modified.
func (s *Set) SymDifference(other *Set) error {
	if other == s {
		s.Clear()
		return nil
	}
	onlyOther := make([]*ObjectId, 0, len(other.members))
	for _, id := range other.members {
		norm, err := s.normalize(id)
		if err != nil {
			return err
		}
		if _, found := s.search(norm); !found {
			onlyOther = append(onlyOther, norm)
		}
	}
	s.Difference(other)
	for _, id := range onlyOther {
		i, _ := s.search(id)
		s.members = slices.Insert(s.members, i, id)
	}
	return nil
}

// Expression builds the restriction selecting the members: one IN per
// identifying property, in registration order, joined with AND. Property
// names are qualified with sourceAlias when it is not empty.
//
// For composite identities the result selects every combination of the
// listed values, which may include rows outside the set.
func (s *Set) Expression(sourceAlias string) (nodes.Expression, error) {
	if len(s.properties) == 0 {
		return nil, nodes.ErrPreconditionViolation.New("object id set has no identifying properties")
	}
	if len(s.members) == 0 {
		return nil, nodes.ErrPreconditionViolation.New("object id set is empty")
	}
	clauses := make([]nodes.Expression, 0, len(s.properties))
	for _, p := range s.properties {
		name := p.Name
		if sourceAlias != "" {
			name = sourceAlias + "." + name
		}
		in := nodes.NewIn(name)
		for _, id := range s.members {
			in.Add(literal(p.Type, id.values[p.Position]))
		}
		clauses = append(clauses, in)
	}
	return nodes.Conjoin(clauses...), nil
}

func literal(typ PropertyType, v any) nodes.Expression {
	switch typ {
	case String, UUID:
		return nodes.LiteralString(cast.ToString(v))
	default:
		return nodes.Literal(v)
	}
}

func (s *Set) normalize(id *ObjectId) (*ObjectId, error) {
	if len(s.properties) == 0 {
		return nil, nodes.ErrPreconditionViolation.New("object id set has no identifying properties")
	}
	if id == nil {
		return nil, nodes.ErrPreconditionViolation.New("nil object id")
	}
	out := make([]any, len(id.values))
	copy(out, id.values)
	for _, p := range s.properties {
		if p.Position >= len(id.values) {
			return nil, nodes.ErrPreconditionViolation.New(
				fmt.Sprintf("object id %s has no value for property %s at position %d", id, p.Name, p.Position))
		}
		v, err := convert(p.Type, id.values[p.Position])
		if err != nil {
			return nil, ErrInvalidValue.Wrap(err, cast.ToString(id.values[p.Position]), p.Type, p.Name)
		}
		out[p.Position] = v
	}
	return &ObjectId{values: out}, nil
}

func convert(typ PropertyType, v any) (any, error) {
	switch typ {
	case String:
		return cast.ToStringE(v)
	case Int16:
		return cast.ToInt16E(v)
	case Int32:
		return cast.ToInt32E(v)
	case Int64:
		return cast.ToInt64E(v)
	case Double:
		return cast.ToFloat64E(v)
	case Bool:
		return cast.ToBoolE(v)
	case DateTime:
		return cast.ToTimeE(v)
	case UUID:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	}
	return v, nil
}

func (s *Set) search(id *ObjectId) (int, bool) {
	return slices.BinarySearchFunc(s.members, id, compareIds)
}

// compareIds orders identities value by value; a shorter identity sorts
// first when it is a prefix of the other.
func compareIds(a, b *ObjectId) int {
	for i := range min(len(a.values), len(b.values)) {
		if c := compareValues(a.values[i], b.values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.values), len(b.values))
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
		return cmp.Compare(float64(x), cast.ToFloat64(b))
	case int16, int32, float64:
		if y, err := cast.ToFloat64E(b); err == nil {
			return cmp.Compare(cast.ToFloat64(x), y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp.Compare(boolRank(x), boolRank(y))
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
