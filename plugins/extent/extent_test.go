package extent

import (
	"testing"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/testutil"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/plugins"
	"github.com/bawdo/geosql/visitors"
	"github.com/paulmach/orb"
)

var window = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}

func postgis(t *testing.T) nodes.Visitor {
	t.Helper()
	d, err := dialect.Builtin("postgis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return visitors.NewPostGISVisitor(d)
}

func transform(t *testing.T, e *Extent, sel *nodes.Select) *nodes.Select {
	t.Helper()
	result, err := e.TransformSelect(sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func from(items ...nodes.FromItem) *nodes.Select {
	sel := nodes.NewSelect()
	sel.SetFrom(items...)
	return sel
}

// --- Default behaviour ---

func TestDefaultColumnGeom(t *testing.T) {
	t.Parallel()
	sel := transform(t, New(window, WithSRID(4326)), from(nodes.DataSet("city")))
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM city WHERE geom && ST_MakeEnvelope(0, 0, 10, 10, 4326)")
}

func TestCustomColumnName(t *testing.T) {
	t.Parallel()
	sel := transform(t, New(window, WithColumn("the_geom")), from(nodes.DataSet("city")))
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM city WHERE the_geom && ST_MakeEnvelope(0, 0, 10, 10)")
}

// --- Preserves existing WHERE conditions ---

func TestPreservesExistingWhere(t *testing.T) {
	t.Parallel()
	sel := from(nodes.DataSet("city"))
	sel.SetWhere(nodes.Property("uf").Eq("SP"))
	sel = transform(t, New(window), sel)
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM city WHERE uf = 'SP' AND geom && ST_MakeEnvelope(0, 0, 10, 10)")
}

// --- Joins ---

func joined() *nodes.Select {
	return from(nodes.NewJoin(nodes.DataSet("city"), nodes.DataSet("river").As("r"), nodes.CrossJoin, nil))
}

func TestAppliedToJoinedDataSets(t *testing.T) {
	t.Parallel()
	sel := transform(t, New(window), joined())
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM (city CROSS JOIN river AS r) WHERE city.geom && ST_MakeEnvelope(0, 0, 10, 10) "+
			"AND r.geom && ST_MakeEnvelope(0, 0, 10, 10)")
}

func TestWithDataSetsMatchesByUnderlyingName(t *testing.T) {
	t.Parallel()
	sel := transform(t, New(window, WithDataSets("river")), joined())
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM (city CROSS JOIN river AS r) WHERE r.geom && ST_MakeEnvelope(0, 0, 10, 10)")
}

func TestWithDataSetColumnFallsBackToDefault(t *testing.T) {
	t.Parallel()
	e := New(window, WithDataSetColumn("river", "shape"), WithDataSets("city", "river"))
	sel := transform(t, e, joined())
	testutil.AssertSQL(t, postgis(t), sel,
		"SELECT * FROM (city CROSS JOIN river AS r) WHERE city.geom && ST_MakeEnvelope(0, 0, 10, 10) "+
			"AND r.shape && ST_MakeEnvelope(0, 0, 10, 10)")
}

func TestNoDataSetsIsNoOp(t *testing.T) {
	t.Parallel()
	sel := transform(t, New(window), nodes.NewSelect(nodes.NewField(nodes.Literal(1), "one")))
	testutil.AssertSQL(t, postgis(t), sel, "SELECT 1 AS one")
}

// --- Inserts ---

func TestInsertFromSelectIsRestricted(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewInsert(nodes.DataSet("city_copy"))
	stmt.SetSelect(from(nodes.DataSet("city")))
	result, err := New(window).TransformInsert(stmt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertSQL(t, postgis(t), result,
		"INSERT INTO city_copy SELECT * FROM city WHERE geom && ST_MakeEnvelope(0, 0, 10, 10)")
}

func TestInsertValuesUntouched(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewInsert(nodes.DataSet("city"))
	stmt.Values = [][]nodes.Expression{{nodes.Literal(1)}}
	result, err := New(window).TransformInsert(stmt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != stmt || result.Select != nil {
		t.Error("expected VALUES insert to be returned unchanged")
	}
}

func TestInvertedWindowPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !nodes.ErrPreconditionViolation.Is(err) {
			t.Errorf("unexpected panic value %v", r)
		}
	}()
	New(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{0, 0}})
}

func TestImplementsTransformer(t *testing.T) {
	t.Parallel()
	var _ plugins.Transformer = New(window)
	var _ plugins.Named = New(window)
}
