package querydoc

import (
	"fmt"
	"slices"

	"github.com/bawdo/geosql/filter"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Predicate is a filter operator written as a one-key mapping:
//
//	equal_to: {property: uf, value: SP}
//	and: [<predicate>, <predicate>]
//	not: <predicate>
//	between: {property: pop, lower: 10, upper: 20}
//	like: {property: name, pattern: "J%"}
//	is_null: {property: name}
//	bbox: {property: geom, envelope: [0, 0, 10, 10], srid: 4326}
//	intersects: {property: geom, wkt: "POINT(1 2)", srid: 4326}
//	dwithin: {property: geom, wkt: "POINT(1 2)", distance: 500, units: m}
type Predicate struct {
	Op filter.Op
}

var comparisons = map[string]filter.ComparisonOperator{
	"equal_to":                 filter.EqualTo,
	"not_equal_to":             filter.NotEqualTo,
	"less_than":                filter.LessThan,
	"greater_than":             filter.GreaterThan,
	"less_than_or_equal_to":    filter.LessThanOrEqualTo,
	"greater_than_or_equal_to": filter.GreaterThanOrEqualTo,
}

var spatials = map[string]filter.SpatialOperator{
	"equals":     filter.Equals,
	"disjoint":   filter.Disjoint,
	"touches":    filter.Touches,
	"within":     filter.Within,
	"overlaps":   filter.Overlaps,
	"crosses":    filter.Crosses,
	"intersects": filter.Intersects,
	"contains":   filter.Contains,
}

var distances = map[string]filter.DistanceOperator{
	"dwithin": filter.DWithin,
	"beyond":  filter.Beyond,
}

type comparisonArgs struct {
	Property   string `yaml:"property"`
	Value      any    `yaml:"value"`
	ToProperty string `yaml:"to_property"`
	MatchCase  *bool  `yaml:"match_case"`
}

type betweenArgs struct {
	Property string `yaml:"property"`
	Lower    any    `yaml:"lower"`
	Upper    any    `yaml:"upper"`
}

type likeArgs struct {
	Property   string  `yaml:"property"`
	Pattern    string  `yaml:"pattern"`
	WildCard   *string `yaml:"wildcard"`
	SingleChar *string `yaml:"single_char"`
	EscapeChar *string `yaml:"escape_char"`
}

type spatialArgs struct {
	Property string    `yaml:"property"`
	Envelope []float64 `yaml:"envelope"`
	WKT      string    `yaml:"wkt"`
	SRID     int       `yaml:"srid"`
	Distance float64   `yaml:"distance"`
	Units    string    `yaml:"units"`
}

func (p *Predicate) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return invalid(value, "a predicate is a mapping with exactly one operator")
	}
	name, body := value.Content[0].Value, value.Content[1]
	op, err := decodeOp(name, body)
	if err != nil {
		return err
	}
	p.Op = op
	return nil
}

func decodeOp(name string, body *yaml.Node) (filter.Op, error) {
	switch name {
	case "and", "or":
		var children []Predicate
		if err := body.Decode(&children); err != nil {
			return nil, err
		}
		ops := make([]filter.Op, len(children))
		for i, c := range children {
			ops[i] = c.Op
		}
		if name == "and" {
			return filter.NewAnd(ops...), nil
		}
		return filter.NewOr(ops...), nil
	case "not":
		var child Predicate
		if err := body.Decode(&child); err != nil {
			return nil, err
		}
		return filter.NewNot(child.Op), nil
	case "between":
		var a betweenArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		return filter.NewBetween(filter.Property(a.Property), literal(a.Lower), literal(a.Upper)), nil
	case "like":
		var a likeArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		return filter.NewLike(a.Property, a.Pattern, or(a.WildCard, "%"), or(a.SingleChar, "_"), or(a.EscapeChar, `\`)), nil
	case "is_null":
		var a struct {
			Property string `yaml:"property"`
		}
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		return filter.NewIsNull(a.Property), nil
	case "bbox":
		var a spatialArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		b, err := bound(body, a.Envelope)
		if err != nil {
			return nil, err
		}
		return filter.NewBBOX(a.Property, b, a.SRID), nil
	}

	if cmp, ok := comparisons[name]; ok {
		var a comparisonArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		var second filter.Expression
		switch {
		case a.ToProperty != "":
			second = filter.Property(a.ToProperty)
		case a.Value != nil:
			second = literal(a.Value)
		default:
			return nil, invalid(body, name+" needs a value or to_property")
		}
		op := filter.NewComparison(cmp, filter.Property(a.Property), second)
		if a.MatchCase != nil {
			op.MatchCase = *a.MatchCase
		}
		return op, nil
	}

	if sp, ok := spatials[name]; ok {
		var a spatialArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		if a.WKT != "" {
			g, err := geometry(body, a.WKT)
			if err != nil {
				return nil, err
			}
			return filter.NewBinarySpatial(sp, a.Property, g, a.SRID), nil
		}
		b, err := bound(body, a.Envelope)
		if err != nil {
			return nil, err
		}
		return filter.NewBinarySpatialEnvelope(sp, a.Property, b, a.SRID), nil
	}

	if dist, ok := distances[name]; ok {
		var a spatialArgs
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		g, err := geometry(body, a.WKT)
		if err != nil {
			return nil, err
		}
		return filter.NewDistanceBuffer(dist, a.Property, g, a.SRID, filter.Distance{Value: a.Distance, Units: a.Units}), nil
	}

	return nil, invalid(body, "unknown operator "+name)
}

// Operators lists the predicate keys, sorted.
func Operators() []string {
	names := []string{"and", "or", "not", "between", "like", "is_null", "bbox"}
	for k := range comparisons {
		names = append(names, k)
	}
	for k := range spatials {
		names = append(names, k)
	}
	for k := range distances {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// literal converts a YAML scalar to the text form Filter Encoding carries.
func literal(v any) *filter.Literal {
	return filter.NewLiteral(cast.ToString(v))
}

func bound(n *yaml.Node, env []float64) (orb.Bound, error) {
	if len(env) != 4 {
		return orb.Bound{}, invalid(n, fmt.Sprintf("envelope needs 4 numbers, got %d", len(env)))
	}
	b := orb.Bound{Min: orb.Point{env[0], env[1]}, Max: orb.Point{env[2], env[3]}}
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return orb.Bound{}, invalid(n, fmt.Sprintf("malformed envelope %v", env))
	}
	return b, nil
}

func geometry(n *yaml.Node, text string) (orb.Geometry, error) {
	if text == "" {
		return nil, invalid(n, "wkt is required")
	}
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, ErrInvalidDocument.Wrap(err, fmt.Sprintf("line %d: %v", n.Line, err))
	}
	return g, nil
}

func or(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func invalid(n *yaml.Node, msg string) error {
	return ErrInvalidDocument.New(fmt.Sprintf("line %d: %s", n.Line, msg))
}
