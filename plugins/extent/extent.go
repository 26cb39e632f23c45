// Package extent provides a Transformer that restricts SELECT queries to
// a spatial window: for every referenced data set it appends an
// envelope intersection test on the data set's geometry column.
//
// # Basic usage
//
//	ext := extent.New(orb.Bound{Min: orb.Point{-47, -24}, Max: orb.Point{-46, -23}}, extent.WithSRID(4326))
//	query := managers.NewSelectManager(nodes.DataSet("city"))
//	query.Use(ext)
//	// PostGIS: SELECT * FROM city WHERE geom && ST_MakeEnvelope(-47, -24, -46, -23, 4326)
//
// # Custom column
//
//	ext := extent.New(window, extent.WithColumn("the_geom"))
//
// # Restrict to specific data sets
//
//	ext := extent.New(window, extent.WithDataSets("city"))
//	// Only "city" gets the window test; other joined data sets are unchanged.
//
// # Per-data-set columns
//
//	ext := extent.New(window,
//	    extent.WithDataSetColumn("city", "geom"),
//	    extent.WithDataSetColumn("river", "shape"),
//	)
//
// # REPL usage
//
//	geosql> plugin extent -47 -24 -46 -23
//	geosql> plugin extent -47 -24 -46 -23 srid 4326 column the_geom on city
//	geosql> plugin off extent
package extent

import (
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
	"github.com/paulmach/orb"
)

// Extent is a Transformer that appends an envelope intersection test for
// the geometry column of every referenced data set (or a configured
// subset).
type Extent struct {
	plugins.BaseTransformer
	Window  orb.Bound
	SRID    int
	Column  string
	Columns map[string]string // per-data-set column overrides (data set name → column name)
	sets    map[string]bool   // nil means apply to all data sets
}

// Option configures an Extent transformer.
type Option func(*Extent)

// WithColumn sets the geometry column name. Default is "geom".
func WithColumn(name string) Option {
	return func(e *Extent) { e.Column = name }
}

// WithSRID sets the spatial reference of the window. Zero leaves it
// unspecified.
func WithSRID(srid int) Option {
	return func(e *Extent) { e.SRID = srid }
}

// WithDataSets restricts the plugin to only the named data sets.
// By default, the plugin applies to every data set in the query.
func WithDataSets(names ...string) Option {
	return func(e *Extent) {
		e.sets = make(map[string]bool, len(names))
		for _, n := range names {
			e.sets[n] = true
		}
	}
}

// WithDataSetColumn sets a per-data-set column override. The data set is
// automatically added to the whitelist, restricting the plugin's scope.
func WithDataSetColumn(dataSet, column string) Option {
	return func(e *Extent) {
		if e.Columns == nil {
			e.Columns = make(map[string]string)
		}
		e.Columns[dataSet] = column
		if e.sets == nil {
			e.sets = make(map[string]bool)
		}
		e.sets[dataSet] = true
	}
}

// New creates an Extent transformer for the given window. An inverted
// window panics.
func New(window orb.Bound, opts ...Option) *Extent {
	e := &Extent{Window: window, Column: "geom"}
	for _, o := range opts {
		o(e)
	}
	// validate once up front
	e.envelope()
	return e
}

// Name implements plugins.Named.
func (e *Extent) Name() string { return "extent" }

// TransformSelect appends the window test to the WHERE clause for each
// matching data set referenced in the query (FROM and joins).
func (e *Extent) TransformSelect(sel *nodes.Select) (*nodes.Select, error) {
	for _, ref := range plugins.CollectDataSets(sel) {
		if e.appliesTo(ref.Name) {
			plugins.AddCondition(sel, nodes.STEnvelopeIntersects(ref.Col(e.columnFor(ref.Name)), e.envelope()))
		}
	}
	return sel, nil
}

// TransformInsert restricts the rows of an INSERT ... SELECT.
func (e *Extent) TransformInsert(stmt *nodes.Insert) (*nodes.Insert, error) {
	if stmt.Select == nil {
		return stmt, nil
	}
	sel, err := e.TransformSelect(stmt.Select)
	if err != nil {
		return nil, err
	}
	stmt.SetSelect(sel)
	return stmt, nil
}

func (e *Extent) envelope() *nodes.LiteralEnvelope {
	return nodes.Envelope(e.Window.Min[0], e.Window.Min[1], e.Window.Max[0], e.Window.Max[1], e.SRID)
}

func (e *Extent) appliesTo(name string) bool {
	if e.sets == nil {
		return true
	}
	return e.sets[name]
}

// columnFor returns the column name to use for the given data set.
// It checks Columns for a per-data-set override, falling back to Column.
func (e *Extent) columnFor(name string) string {
	if e.Columns != nil {
		if col, ok := e.Columns[name]; ok {
			return col
		}
	}
	return e.Column
}
