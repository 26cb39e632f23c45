// Package dialect maps the function and operator names used in the query
// AST to the SQL text a given backend understands.
//
// A Dialect is built once, usually from a YAML definition (see Load and
// Builtin), and then shared read-only by every visitor that renders
// against it. Insert is not safe to call concurrently with rendering.
package dialect

import (
	"slices"

	"github.com/bawdo/geosql/nodes"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnsupportedFunction is returned when a function node names a function
// the dialect has no encoder for. Rendering of the statement stops.
var ErrUnsupportedFunction = errors.NewKind("unsupported function: %s")

// Category groups the functions of a dialect the same way a capabilities
// document does.
type Category string

const (
	SpatialTopologic   Category = "spatial_topologic"
	SpatialMetric      Category = "spatial_metric"
	SpatialNewGeometry Category = "spatial_new_geometry"
	Logical            Category = "logical"
	Comparison         Category = "comparison"
	Arithmetic         Category = "arithmetic"
	Functions          Category = "functions"
)

// Categories lists every category in definition order.
var Categories = []Category{
	SpatialTopologic, SpatialMetric, SpatialNewGeometry,
	Logical, Comparison, Arithmetic, Functions,
}

// Renderer is what an encoder needs from the visitor driving it.
type Renderer interface {
	// Render renders an argument through the active visitor.
	Render(e nodes.Expression) (string, error)
	// Dialect returns the dialect in use.
	Dialect() *Dialect
}

// Encoder renders a call to one function given its arguments.
type Encoder interface {
	Encode(r Renderer, args []nodes.Expression) (string, error)
}

// Dialect is a registry of function encoders for one backend.
type Dialect struct {
	name             string
	encoders         map[string]Encoder
	categories       map[Category][]string
	geometryOperands []string
}

// New creates an empty dialect.
func New(name string) *Dialect {
	return &Dialect{
		name:       name,
		encoders:   make(map[string]Encoder),
		categories: make(map[Category][]string),
	}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return d.name }

// Insert registers enc for name, replacing any previous encoder.
func (d *Dialect) Insert(name string, enc Encoder) {
	d.InsertIn(Functions, name, enc)
}

// InsertIn registers enc for name under a capability category. A name
// already listed in some category keeps its original place.
func (d *Dialect) InsertIn(cat Category, name string, enc Encoder) {
	if _, ok := d.encoders[name]; !ok {
		d.categories[cat] = append(d.categories[cat], name)
	}
	d.encoders[name] = enc
}

// Find returns the encoder registered for name.
func (d *Dialect) Find(name string) (Encoder, bool) {
	enc, ok := d.encoders[name]
	return enc, ok
}

// Encode renders a call to name through its encoder. A name without an
// encoder is an ErrUnsupportedFunction error.
func (d *Dialect) Encode(r Renderer, name string, args []nodes.Expression) (string, error) {
	enc, ok := d.encoders[name]
	if !ok {
		return "", ErrUnsupportedFunction.New(name)
	}
	return enc.Encode(r, args)
}

// Names returns every registered function name, sorted.
func (d *Dialect) Names() []string {
	names := make([]string, 0, len(d.encoders))
	for n := range d.encoders {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// SetGeometryOperands records the geometry types the backend accepts as
// operands of spatial functions.
func (d *Dialect) SetGeometryOperands(types ...string) {
	d.geometryOperands = slices.Clone(types)
}

// Capabilities describes what a dialect can render.
type Capabilities struct {
	Functions        map[Category][]string
	GeometryOperands []string
}

// Supports reports whether a function is listed in the category.
func (c Capabilities) Supports(cat Category, name string) bool {
	return slices.Contains(c.Functions[cat], name)
}

// Capabilities returns a copy of the dialect's capability listing.
func (d *Dialect) Capabilities() Capabilities {
	c := Capabilities{
		Functions:        make(map[Category][]string, len(d.categories)),
		GeometryOperands: slices.Clone(d.geometryOperands),
	}
	for cat, names := range d.categories {
		c.Functions[cat] = slices.Clone(names)
	}
	return c
}
